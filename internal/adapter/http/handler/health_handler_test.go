package handler_test

import (
	"errors"
	"net/http"
	"testing"

	. "github.com/onsi/gomega"

	"todoapi/internal/core/domain"
)

func TestHealth(t *testing.T) {
	RegisterTestingT(t)

	app := newTestApp()

	rr := app.do(http.MethodGet, "/health", "", nil)
	body := decode[healthData](rr)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(body.Success).To(BeTrue())
	Expect(body.Data).To(Equal(healthData{Status: "ok", Database: "up", Version: "test"}))

	app.pingErr = errors.New("connection refused")

	rr = app.do(http.MethodGet, "/health", "", nil)
	body = decode[healthData](rr)

	Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(body.Success).To(BeFalse())
	Expect(body.Data.Status).To(Equal("degraded"))
	Expect(body.Data.Database).To(Equal("down"))
}

func TestUnknownRoute(t *testing.T) {
	RegisterTestingT(t)

	rr := newTestApp().do(http.MethodGet, "/api/v1/projects", "", nil)
	body := decode[any](rr)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(body.Code).To(Equal(domain.CodeNotFound))
	Expect(body.Error).To(Equal("Route GET /api/v1/projects not found"))
}

func TestRouterHeaders(t *testing.T) {
	RegisterTestingT(t)

	app := newTestApp()

	req := app.do(http.MethodGet, "/health", "", nil)

	Expect(req.Header().Get("X-Request-ID")).ToNot(BeEmpty())
	Expect(req.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))

	metrics := app.do(http.MethodGet, "/metrics", "", nil)

	Expect(metrics.Code).To(Equal(http.StatusOK))
	Expect(metrics.Body.String()).To(ContainSubstring("http_requests_total"))
}
