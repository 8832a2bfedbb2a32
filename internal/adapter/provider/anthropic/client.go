// Package anthropic sends definition prompts to the Anthropic Messages API
// and classifies its failures into domain.ResolutionErrorKind.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/domain"
)

// statusOverloaded is Anthropic's non-standard "overloaded" status.
const statusOverloaded = 529

var errEmptyResponse = errors.New("empty response")

// Client wraps the SDK client with the model settings from ResolverConfig.
// Requests are never retried: one Complete call is one HTTP request.
type Client struct {
	api       sdk.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// NewClient builds a Client. cfg.BaseURL overrides the public endpoint.
func NewClient(cfg config.ResolverConfig, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:       sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       logger.With("adapter", "anthropic"),
	}
}

// Complete sends one user prompt with the given system instruction and
// returns the trimmed text of the answer. Every error is a
// *domain.ResolutionError.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		kind := Classify(err)
		c.log.WarnContext(ctx, "anthropic request failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		return "", &domain.ResolutionError{Kind: kind, Err: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &domain.ResolutionError{Kind: domain.ResolutionUnknown, Err: errEmptyResponse}
	}

	c.log.DebugContext(ctx, "anthropic response",
		slog.String("stop_reason", string(msg.StopReason)),
		slog.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return text, nil
}

// Classify maps an SDK or transport error to a resolution error kind.
func Classify(err error) domain.ResolutionErrorKind {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusTooManyRequests:
			return domain.ResolutionRateLimited
		case code == http.StatusUnauthorized, code == http.StatusForbidden:
			return domain.ResolutionAuthInvalid
		case code == http.StatusRequestTimeout, code == statusOverloaded, code >= 500:
			return domain.ResolutionProviderUnavailable
		}
		return domain.ResolutionUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ResolutionProviderUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ResolutionProviderUnavailable
	}

	return domain.ResolutionUnknown
}
