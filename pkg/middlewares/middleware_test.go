package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

func TestSetupGinMiddleware_RecordsRequests(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	router := gin.New()
	SetupGinMiddleware(router, &config.Config{ServiceName: "todo-api"}, metrics, config.NewNopLogger())

	router.GET("/api/v1/todos/:id", func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/todos/42", nil))

	Expect(w.Code).To(Equal(http.StatusNotFound))

	count, err := testutil.GatherAndCount(registry, "http_requests_total")
	Expect(err).ToNot(HaveOccurred())
	Expect(count).To(Equal(1))

	expected := `
# HELP http_requests_total HTTP requests served by route and status
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/v1/todos/:id",status="404"} 1
`
	Expect(testutil.GatherAndCompare(registry, strings.NewReader(expected), "http_requests_total")).To(Succeed())
}
