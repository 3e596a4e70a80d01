package completion

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

// GeminiClient generates code with a Gemini model
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	call    call
}

func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	model := cfg.Model
	if model == "" || model == DefaultModel {
		model = "gemini-1.5-flash"
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
		call:    call{provider: ProviderGemini, logger: logger},
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, prompt, language string, maxTokens int) (string, error) {
	return c.call.run(ctx, prompt, language, maxTokens, c.send)
}

func (c *GeminiClient) send(ctx context.Context, directive string, maxTokens int) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.model)
	model.SetMaxOutputTokens(outputTokenLimit(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(directive))
	if err != nil {
		return "", gatewayError(ProviderGemini, KindTransport, err)
	}
	return firstCandidateText(resp), nil
}

func outputTokenLimit(maxTokens int) int32 {
	if maxTokens > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(maxTokens)
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
