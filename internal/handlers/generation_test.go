package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Anoka2002/codecraftagent/internal/codegen"
	"github.com/Anoka2002/codecraftagent/internal/completion"
	"github.com/Anoka2002/codecraftagent/internal/handlers"
	"github.com/Anoka2002/codecraftagent/internal/middleware"
	"github.com/Anoka2002/codecraftagent/internal/models"
)

type fakeCompletion struct {
	text  string
	err   error
	calls int
}

func (f *fakeCompletion) Complete(_ context.Context, _, _ string, _ int) (string, error) {
	f.calls++
	return f.text, f.err
}

type upperFormatter struct{}

func (upperFormatter) Format(_ context.Context, code, tag string) string {
	if tag == "python" {
		return "formatted:" + code
	}
	return code
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, models.CodeRequest) (*models.CodeResponse, error) {
	return nil, errors.New("disk on fire")
}

func newGenerationRouter(gen handlers.Generator) *gin.Engine {
	h := handlers.NewGenerationHandler(gen, zap.NewNop())
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/generate_code", h.GenerateCode)
	r.POST("/api/v1/generate_code", h.GenerateCode)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("GenerationHandler", func() {
	var (
		client *fakeCompletion
		router *gin.Engine
	)

	BeforeEach(func() {
		client = &fakeCompletion{text: "def hello():print('Hello')"}
		svc := codegen.NewService(nil, client, upperFormatter{}, nil, zap.NewNop())
		router = newGenerationRouter(svc)
	})

	Describe("successful generation", func() {
		It("returns formatted code with the selected language", func() {
			w := post(router, "/generate_code", `{"prompt":"print hello world"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["language"]).To(Equal("python"))
			Expect(body["generated_code"]).To(Equal("formatted:def hello():print('Hello')"))
		})

		It("is also served under the versioned prefix", func() {
			w := post(router, "/api/v1/generate_code", `{"prompt":"print hello world"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("honours an explicit language and format=false", func() {
			w := post(router, "/generate_code", `{"prompt":"hello","language":"rust","format":false,"max_tokens":50}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["language"]).To(Equal("rust"))
			Expect(body["generated_code"]).To(Equal("def hello():print('Hello')"))
		})

		It("wraps self-referential requests", func() {
			w := post(router, "/generate_code", `{"prompt":"a code generator like yourself","format":false}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			code := decode(w)["generated_code"].(string)
			Expect(code).To(HavePrefix("# Simplified python code for a code-generating agent\n"))
			Expect(code).To(HaveSuffix("# Note: This is a secure, simplified version to avoid recursion risks."))
		})
	})

	Describe("validation", func() {
		DescribeTable("rejects malformed bodies with 422",
			func(body string) {
				w := post(router, "/generate_code", body)

				Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
				Expect(decode(w)["code"]).To(Equal(middleware.ErrCodeValidation))
				Expect(client.calls).To(BeZero())
			},
			Entry("missing prompt", `{"language":"python"}`),
			Entry("null prompt", `{"prompt":null}`),
			Entry("not json", `prompt=hello`),
			Entry("wrong prompt type", `{"prompt":42}`),
			Entry("negative max_tokens", `{"prompt":"hi","max_tokens":-1}`),
			Entry("oversized max_tokens", `{"prompt":"hi","max_tokens":2147483648}`),
			Entry("wrong format type", `{"prompt":"hi","format":"yes"}`),
		)

		DescribeTable("answers 400 for a blank prompt without calling the completion service",
			func(body string) {
				w := post(router, "/generate_code", body)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				resp := decode(w)
				Expect(resp["code"]).To(Equal(middleware.ErrCodeBadRequest))
				Expect(resp["detail"]).To(Equal("prompt must not be empty"))
				Expect(resp).NotTo(HaveKey("generated_code"))
				Expect(client.calls).To(BeZero())
			},
			Entry("empty prompt", `{"prompt":""}`),
			Entry("whitespace-only prompt", `{"prompt":"   "}`),
			Entry("empty prompt with language", `{"prompt":"","language":"python"}`),
		)
	})

	Describe("completion service failures", func() {
		It("answers 503 with a network error when the service is unreachable", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			url := srv.URL
			srv.Close()

			gateway := completion.NewHTTPClient(completion.Config{URL: url, APIKey: "k", Timeout: time.Second}, zap.NewNop())
			svc := codegen.NewService(nil, gateway, upperFormatter{}, nil, zap.NewNop())
			r := newGenerationRouter(svc)

			w := post(r, "/generate_code", `{"prompt":"print hello world"}`)

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			body := decode(w)
			Expect(body["code"]).To(Equal(middleware.ErrCodeNetworkError))
			Expect(body["detail"]).To(HavePrefix("network error: "))
			Expect(body).NotTo(HaveKey("generated_code"))
		})

		It("answers 503 when the service returns an error status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			DeferCleanup(srv.Close)

			gateway := completion.NewHTTPClient(completion.Config{URL: srv.URL, APIKey: "k", Timeout: time.Second}, zap.NewNop())
			r := newGenerationRouter(codegen.NewService(nil, gateway, upperFormatter{}, nil, zap.NewNop()))

			w := post(r, "/generate_code", `{"prompt":"hi"}`)
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	It("answers 500 for unclassified failures", func() {
		r := newGenerationRouter(failingGenerator{})

		w := post(r, "/generate_code", `{"prompt":"hi"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		body := decode(w)
		Expect(body["code"]).To(Equal(middleware.ErrCodeInternalError))
		Expect(body["detail"]).To(Equal("internal error: disk on fire"))
	})
})
