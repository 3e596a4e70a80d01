package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Anoka2002/codecraftagent/internal/handlers"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeFormatters map[string]bool

func (f fakeFormatters) Available() map[string]bool { return f }

func get(h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/health", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w
}

var _ = Describe("HealthHandler", func() {
	formatters := fakeFormatters{"python": true, "java": false}

	It("reports liveness", func() {
		h := handlers.NewHealthHandler(formatters, nil, nil, "1.2.3")
		w := get(h.Health)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body["status"]).To(Equal("healthy"))
		Expect(body["version"]).To(Equal("1.2.3"))
	})

	It("reports formatter availability without degrading", func() {
		h := handlers.NewHealthHandler(formatters, nil, fakePinger{}, "dev")
		w := get(h.DeepHealth)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body["status"]).To(Equal("healthy"))
		Expect(body["formatters"]).To(Equal(map[string]any{"python": true, "java": false}))
		Expect(body["dependencies"]).To(Equal(map[string]any{"redis": "not configured", "nats": "healthy"}))
	})

	It("degrades when a configured dependency is down", func() {
		h := handlers.NewHealthHandler(formatters, fakePinger{err: errors.New("connection refused")}, nil, "dev")
		w := get(h.DeepHealth)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		body := decode(w)
		Expect(body["status"]).To(Equal("degraded"))
		Expect(body["dependencies"]).To(HaveKeyWithValue("redis", "unhealthy: connection refused"))
	})
})
