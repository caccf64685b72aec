package web

import (
	"log/slog"
	"net/http"

	"github.com/abdrabosoliman1973/Soliman25/internal/web/handlers"
	"github.com/abdrabosoliman1973/Soliman25/internal/web/middleware"
)

type Router struct {
	runner      handlers.Runner
	log         *slog.Logger
	apiKey      string
	rateLimiter *middleware.IPRateLimiter
}

// NewRouter wires the API. An empty apiKey leaves the API open and a nil
// rateLimiter disables rate limiting.
func NewRouter(runner handlers.Runner, log *slog.Logger, apiKey string, rateLimiter *middleware.IPRateLimiter) *Router {
	return &Router{
		runner:      runner,
		log:         log,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
	}
}

func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	paraphraseHandler := handlers.NewParaphraseHandler(r.runner, r.log)

	mux.Handle("POST /api/v1/paraphrase",
		middleware.Chain(
			http.HandlerFunc(paraphraseHandler.Create),
			middleware.RequestID(),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.APIKeyAuth(r.apiKey),
			middleware.RateLimit(r.rateLimiter),
		),
	)

	mux.Handle("GET /health", http.HandlerFunc(handlers.Health))

	return middleware.CORS(mux)
}
