package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Anoka2002/codecraftagent/internal/middleware"
	"github.com/Anoka2002/codecraftagent/internal/models"
	"github.com/cockroachdb/errors"
)

// errNetwork is returned for any transport failure, timeouts included
var errNetwork = errors.New("network error: check your connection")

// apiError is a non-2xx answer from the server
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return "API error: " + e.Detail
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, httpClient *http.Client) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *apiClient) Generate(ctx context.Context, req models.CodeRequest) (*models.CodeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	var resp models.CodeResponse
	if err := c.do(ctx, http.MethodPost, "/generate_code", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeepHealth returns the health report. A degraded server answers 503 with
// the same report, so that status is not an error here.
func (c *apiClient) DeepHealth(ctx context.Context) (json.RawMessage, error) {
	status, data, err := c.send(ctx, http.MethodGet, "/health/deep", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusServiceUnavailable {
		return nil, &apiError{Status: status, Detail: errorDetail(status, data)}
	}
	return json.RawMessage(data), nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	status, data, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &apiError{Status: status, Detail: errorDetail(status, data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (c *apiClient) send(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.WithSecondaryError(errNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.WithSecondaryError(errNetwork, err)
	}
	return resp.StatusCode, data, nil
}

func errorDetail(status int, data []byte) string {
	var body middleware.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}
