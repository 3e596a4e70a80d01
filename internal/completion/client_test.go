package completion

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDirective(t *testing.T) {
	got := Directive("python", "print hello world")
	if got != "Write a python code for: print hello world" {
		t.Errorf("unexpected directive %q", got)
	}
}

func newHTTPTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(Config{URL: srv.URL, APIKey: "secret", Timeout: 5 * time.Second}, zap.NewNop())
}

func TestHTTPClientComplete(t *testing.T) {
	var received completionRequest
	client := newHTTPTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"text":"\n\ndef hello():print('Hello')\n"},{"text":"ignored"}]}`))
	})

	got, err := client.Complete(context.Background(), "say hello", "python", 256)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "def hello():print('Hello')" {
		t.Errorf("unexpected text %q", got)
	}
	if received.Prompt != "Write a python code for: say hello" {
		t.Errorf("unexpected prompt sent %q", received.Prompt)
	}
	if received.MaxTokens != 256 {
		t.Errorf("expected max_tokens 256, got %d", received.MaxTokens)
	}
}

func TestCompleteLogsRequestBeforeCall(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var loggedFirst atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		loggedFirst.Store(logs.FilterMessage("generating code").Len() == 1)
		w.Write([]byte(`{"choices":[{"text":"fn main() {}"}]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{URL: srv.URL, APIKey: "k", Timeout: time.Second}, zap.New(core))
	if _, err := client.Complete(context.Background(), "a fast system utility", "rust", 100); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !loggedFirst.Load() {
		t.Error("expected the request to be logged before the service is called")
	}

	entries := logs.FilterMessage("generating code").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %s", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["prompt"] != "a fast system utility" || fields["language"] != "rust" || fields["provider"] != ProviderHTTP {
		t.Errorf("unexpected log fields %v", fields)
	}
}

func TestOutputTokenLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int32
	}{
		{1000, 1000},
		{math.MaxInt32, math.MaxInt32},
		{math.MaxInt32 + 1, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := outputTokenLimit(tt.in); got != tt.want {
			t.Errorf("outputTokenLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHTTPClientFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   ErrorKind
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, KindStatus, 500},
		{"unauthorized", http.StatusUnauthorized, `bad key`, KindStatus, 401},
		{"malformed body", http.StatusOK, `not json`, KindDecode, 0},
		{"wrong shape", http.StatusOK, `{"choices":"nope"}`, KindDecode, 0},
		{"no choices", http.StatusOK, `{"choices":[]}`, KindEmpty, 0},
		{"missing choices", http.StatusOK, `{}`, KindEmpty, 0},
		{"blank text", http.StatusOK, `{"choices":[{"text":"   \n"}]}`, KindEmpty, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newHTTPTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "p", "go", 10)
			if err == nil {
				t.Fatal("expected error")
			}

			var ge *GatewayError
			if !errors.As(err, &ge) {
				t.Fatalf("expected GatewayError, got %T: %v", err, err)
			}
			if ge.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, ge.Kind)
			}
			if ge.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, ge.StatusCode)
			}
			if ge.Provider != ProviderHTTP {
				t.Errorf("unexpected provider %s", ge.Provider)
			}
		})
	}
}

func TestHTTPClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(Config{URL: url, APIKey: "k", Timeout: time.Second}, zap.NewNop())
	_, err := client.Complete(context.Background(), "p", "python", 10)

	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Kind != KindTransport {
		t.Fatalf("expected transport GatewayError, got %v", err)
	}
	if !IsGatewayError(errors.Wrap(err, "generate")) {
		t.Error("IsGatewayError should see through wrapping")
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewHTTPClient(Config{URL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, zap.NewNop())
	_, err := client.Complete(context.Background(), "p", "python", 10)

	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Kind != KindTransport {
		t.Fatalf("expected transport GatewayError on timeout, got %v", err)
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","created":1,"model":"gpt-3.5-turbo-instruct",
			"choices":[{"index":0,"text":"  fn main() {}  ","finish_reason":"stop","logprobs":null}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{URL: srv.URL + "/v1/", APIKey: "k", Timeout: 5 * time.Second}, zap.NewNop())
	got, err := client.Complete(context.Background(), "fast system tool", "rust", 64)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "fn main() {}" {
		t.Errorf("unexpected text %q", got)
	}
	if body["prompt"] != "Write a rust code for: fast system tool" {
		t.Errorf("unexpected prompt %v", body["prompt"])
	}
	if body["model"] != DefaultModel {
		t.Errorf("unexpected model %v", body["model"])
	}
	if body["max_tokens"] != float64(64) {
		t.Errorf("unexpected max_tokens %v", body["max_tokens"])
	}
}

func TestOpenAIClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{URL: srv.URL + "/v1/", APIKey: "k", Timeout: 5 * time.Second}, zap.NewNop())
	_, err := client.Complete(context.Background(), "p", "python", 10)

	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if ge.Kind != KindStatus || ge.StatusCode != http.StatusBadGateway {
		t.Errorf("unexpected gateway error %+v", ge)
	}
}

func TestFirstCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("package main\n"), genai.Text("func main() {}")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("other")}}},
		},
	}
	if got := firstCandidateText(resp); got != "package main\nfunc main() {}" {
		t.Errorf("unexpected text %q", got)
	}
	if got := firstCandidateText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "carrier-pigeon"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	c, err := New(context.Background(), Config{URL: "http://localhost", APIKey: "k"}, zap.NewNop())
	if err != nil {
		t.Fatalf("default provider failed: %v", err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Errorf("expected HTTPClient by default, got %T", c)
	}
}
