// Package definition attaches a best-effort definition to a queued word.
package definition

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// DefaultTimeout bounds one provider call when the caller passes zero.
const DefaultTimeout = 15 * time.Second

type completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Resolver asks a text-generation provider for a short definition.
// A Resolver without a provider is disabled and never attempts a lookup.
type Resolver struct {
	provider completer
	timeout  time.Duration
	log      *slog.Logger
}

// NewResolver creates a Resolver. Pass a nil provider to disable enrichment.
func NewResolver(log *slog.Logger, provider completer, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		provider: provider,
		timeout:  timeout,
		log:      log.With("service", "definition"),
	}
}

// Enabled reports whether Resolve will call the provider.
func (r *Resolver) Enabled() bool {
	return r != nil && r.provider != nil
}

// Resolve makes exactly one provider call and never fails: provider errors
// are classified and returned in Resolution.Err.
func (r *Resolver) Resolve(ctx context.Context, text, languageCode string) domain.Resolution {
	if !r.Enabled() {
		return domain.Resolution{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p := buildPrompt(text, languageCode)
	start := time.Now()
	answer, err := r.provider.Complete(ctx, p.system, p.user)
	if err != nil {
		kind := classify(ctx, err)
		r.log.WarnContext(ctx, "definition lookup failed",
			slog.String("word", preview(text)),
			slog.String("language", languageCode),
			slog.String("kind", kind.String()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return domain.Resolution{Err: &kind}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		kind := domain.ResolutionUnknown
		return domain.Resolution{Err: &kind}
	}

	r.log.DebugContext(ctx, "definition resolved",
		slog.String("word", preview(text)),
		slog.String("language", languageCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return domain.Resolution{Definition: &answer}
}

func classify(ctx context.Context, err error) domain.ResolutionErrorKind {
	var re *domain.ResolutionError
	if errors.As(err, &re) && re.Kind.IsValid() {
		return re.Kind
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ResolutionProviderUnavailable
	}
	return domain.ClassifyResolution(err)
}

func preview(s string) string {
	if len(s) > 50 {
		return s[:50]
	}
	return s
}
