package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/logging"
)

// WithRequestLogging logs one line per request once the handler returns.
// 5xx responses are logged at error level and 4xx at warn level.
func WithRequestLogging(next http.Handler, l logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		}
		switch {
		case sw.status >= 500:
			l.Error(r.Context(), "http.request", args...)
		case sw.status >= 400:
			l.Warn(r.Context(), "http.request", args...)
		default:
			l.Info(r.Context(), "http.request", args...)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// WithRecover turns a handler panic into a 500 JSON response.
func WithRecover(next http.Handler, l logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				l.Error(r.Context(), "handler panic", "path", r.URL.Path, "panic", p)
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	corsHeaders = "Authorization, Content-Type, Accept"
)

// WithCORS allows cross-origin calls from origin. Preflight requests from
// that origin are answered here with 204. An empty origin disables CORS.
func WithCORS(next http.Handler, origin string, headerName string) http.Handler {
	if origin == "" {
		return next
	}
	allowHeaders := corsHeaders
	if headerName != "" && !strings.EqualFold(headerName, "Authorization") {
		allowHeaders += ", " + headerName
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqOrigin := r.Header.Get("Origin")
		if reqOrigin == "" || (origin != "*" && reqOrigin != origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", reqOrigin)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
