package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
	"github.com/heartmarshall/wordqueue/internal/service/ingest"
	"github.com/heartmarshall/wordqueue/internal/transport/middleware"
	"github.com/heartmarshall/wordqueue/internal/transport/rest"
)

type queueService interface {
	Submit(ctx context.Context, in ingest.SubmitInput) (*ingest.Result, error)
	ListRecent(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	Stats(ctx context.Context) (domain.QueueStats, error)
}

type healthPinger interface {
	Ping(ctx context.Context) error
}

// NewHandler builds the HTTP routing tree. Health probes are public; the
// queue API is rate limited per client and requires the shared token.
func NewHandler(
	cfg *config.Config,
	logger *slog.Logger,
	svc queueService,
	pinger healthPinger,
	limiter *middleware.RateLimiter,
) http.Handler {
	queue := rest.NewQueueHandler(svc, logger)
	health := rest.NewHealthHandler(pinger, cfg.Database.Driver, BuildVersion())

	protected := middleware.Chain(
		limiter.Limit(cfg.Server.RateLimit),
		middleware.Auth(cfg.Auth.Token),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	mux.Handle("POST /api/queue", protected(http.HandlerFunc(queue.Submit)))
	mux.Handle("GET /api/queue", protected(http.HandlerFunc(queue.List)))
	mux.Handle("GET /api/queue/stats", protected(http.HandlerFunc(queue.Stats)))

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(mux)
}
