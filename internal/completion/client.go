package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/metrics"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/Anoka2002/codecraftagent/internal/completion")

// Provider names accepted by New
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultModel is used by the openai and gemini providers when none is configured
const DefaultModel = "gpt-3.5-turbo-instruct"

// Client produces source code for a prompt in a given language
type Client interface {
	Complete(ctx context.Context, prompt, language string, maxTokens int) (string, error)
}

// Config selects and configures a provider
type Config struct {
	Provider string
	URL      string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Directive builds the instruction sent to the model
func Directive(language, prompt string) string {
	return fmt.Sprintf("Write a %s code for: %s", language, prompt)
}

// New creates the client for cfg.Provider
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderHTTP:
		return NewHTTPClient(cfg, logger), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, errors.Newf("unknown completion provider %q", cfg.Provider)
	}
}

// call is the part shared by every provider: span, log line, latency metric,
// trimming, and the empty-text check
type call struct {
	provider string
	logger   *zap.Logger
}

func (c call) run(ctx context.Context, prompt, language string, maxTokens int,
	send func(ctx context.Context, directive string, maxTokens int) (string, error)) (string, error) {
	ctx, span := tracer.Start(ctx, "completion.Complete", trace.WithAttributes(
		attribute.String("provider", c.provider),
		attribute.String("language", language),
		attribute.Int("max_tokens", maxTokens),
	))
	defer span.End()

	c.logger.Info("generating code",
		zap.String("prompt", prompt),
		zap.String("language", language),
		zap.String("provider", c.provider),
	)

	start := time.Now()
	text, err := send(ctx, Directive(language, prompt), maxTokens)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = gatewayError(c.provider, KindEmpty, ErrEmptyCompletion)
		}
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var ge *GatewayError
		if errors.As(err, &ge) {
			outcome = string(ge.Kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	metrics.CompletionDuration.WithLabelValues(c.provider, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", err
	}
	return text, nil
}
