package completion

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIClient uses the legacy Completions API of any OpenAI-compatible server
type OpenAIClient struct {
	client openai.Client
	model  string
	call   call
}

func NewOpenAIClient(cfg Config, logger *zap.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.URL != "" {
		opts = append(opts, option.WithBaseURL(cfg.URL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
		call:   call{provider: ProviderOpenAI, logger: logger},
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt, language string, maxTokens int) (string, error) {
	return c.call.run(ctx, prompt, language, maxTokens, c.send)
}

func (c *OpenAIClient) send(ctx context.Context, directive string, maxTokens int) (string, error) {
	resp, err := c.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:     openai.CompletionNewParamsModel(c.model),
		Prompt:    openai.CompletionNewParamsPromptUnion{OfString: openai.String(directive)},
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			ge := gatewayError(ProviderOpenAI, KindStatus, err)
			ge.StatusCode = apiErr.StatusCode
			return "", ge
		}
		return "", gatewayError(ProviderOpenAI, KindTransport, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}
