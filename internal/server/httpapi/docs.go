package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed documentation.md
var documentation []byte

func handleDocumentation(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(documentation)
}
