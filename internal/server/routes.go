package server

import (
	"net/http"

	"github.com/jackzampolin/amend/internal/svcctx"
)

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireProvider is middleware for endpoints that call an LLM.
// Returns 503 Service Unavailable when no provider is registered, which
// happens when every configured provider lacks an API key.
func (s *Server) requireProvider(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.services.Registry.ListLLM()) == 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"no LLM provider configured: set an API key in the environment or config file"}`))
			return
		}
		next(w, r)
	}
}
