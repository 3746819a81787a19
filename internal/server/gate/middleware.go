package gate

import (
	"context"
	"encoding/json"
	"net/http"
)

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity the gate attached to an admitted
// request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

type rejection struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Middleware classifies each request and acts on the outcome. Rejected
// requests get a JSON body and never reach next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := g.Classify(r)
		g.metrics.GateDecision(out.Kind.String(), out.Reason)

		switch out.Kind {
		case Bypass:
			next.ServeHTTP(w, r)
		case Admit:
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), out.Identity)))
		default:
			g.logger.Warn(r.Context(), "request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"step", out.Step,
				"reason", out.Reason,
			)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(out.Status)
			_ = json.NewEncoder(w).Encode(rejection{Message: out.Message, Reason: out.Reason})
		}
	})
}
