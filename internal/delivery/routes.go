package delivery

import (
	"net/http"

	"bookrec/internal/middleware"
)

// RouteOptions tunes the middleware wrapped around the API routes.
type RouteOptions struct {
	RPS   float64
	Burst int
}

// Routes registers the API endpoints and wraps them in the request id,
// logging, CORS, rate limit and metrics middleware, outermost first.
func (s *Server) Routes(opts RouteOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommend", s.Recommend)
	mux.HandleFunc("GET /health", s.Health)
	mux.Handle("GET /metrics", s.Metrics())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogger(s.Log),
		middleware.CORS,
		middleware.RateLimit(opts.RPS, opts.Burst),
		middleware.Metrics,
	)
}
