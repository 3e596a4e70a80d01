package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// HTTPClient talks to a completion endpoint that accepts {"prompt","max_tokens"}
// and answers {"choices":[{"text":...}]}
type HTTPClient struct {
	url    string
	apiKey string
	http   *http.Client
	call   call
}

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.Timeout},
		call:   call{provider: ProviderHTTP, logger: logger},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, prompt, language string, maxTokens int) (string, error) {
	return c.call.run(ctx, prompt, language, maxTokens, c.send)
}

func (c *HTTPClient) send(ctx context.Context, directive string, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: directive, MaxTokens: maxTokens})
	if err != nil {
		return "", gatewayError(ProviderHTTP, KindTransport, errors.Wrap(err, "encode request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", gatewayError(ProviderHTTP, KindTransport, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", gatewayError(ProviderHTTP, KindTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", gatewayError(ProviderHTTP, KindTransport, errors.Wrap(err, "read response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ge := gatewayError(ProviderHTTP, KindStatus, errors.Newf("%s: %s", resp.Status, snippet(data)))
		ge.StatusCode = resp.StatusCode
		return "", ge
	}

	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", gatewayError(ProviderHTTP, KindDecode, errors.Wrap(err, "decode response"))
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Text, nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}
