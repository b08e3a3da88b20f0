package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todoapi/internal/adapter/database/sqlite/repository"
	apihttp "todoapi/internal/adapter/http"
	"todoapi/internal/adapter/http/routes"
	"todoapi/internal/adapter/identity"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	. "todoapi/pkg/test"
)

var tokenConfig = identity.TokenConfig{
	Secret:   "handler-test-secret-0123456789abcdef",
	Issuer:   "todoapi",
	Audience: "todoapi-clients",
	TTL:      time.Hour,
}

// envelope decodes both the success and the error body.
type envelope[T any] struct {
	Success    bool                `json:"success"`
	Data       T                   `json:"data"`
	Message    string              `json:"message"`
	Error      string              `json:"error"`
	Code       string              `json:"code"`
	StatusCode int                 `json:"statusCode"`
	Details    []domain.FieldError `json:"details"`
	Stack      string              `json:"stack"`
}

type listData struct {
	Items      []domain.Todo   `json:"items"`
	Pagination domain.PageInfo `json:"pagination"`
}

type tokenData struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

type healthData struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// testApp serves the full router over an in-memory sqlite store.
type testApp struct {
	router  *gin.Engine
	signer  *identity.TokenSigner
	pingErr error
}

func newTestApp() *testApp {
	gin.SetMode(gin.TestMode)

	app := &testApp{signer: identity.NewTokenSigner(tokenConfig)}
	db := InitTestDB()

	cfg := &config.Config{
		Env:            config.EnvTest,
		ServiceVersion: "test",
		HTTP:           config.HTTPConfig{CORSOrigins: []string{"*"}},
		RateLimit:      config.RateLimitConfig{Enabled: false},
	}

	store := &apihttp.Store{
		Todos: repository.NewTodoRepository(db, nil),
		Users: repository.NewUserRepository(db, nil),
		Ping:  func(ctx context.Context) error { return app.pingErr },
		Close: func() { db.Close() },
	}

	verifier := identity.NewTokenVerifier(tokenConfig)
	provider := identity.NewLocalProvider(app.signer, bcrypt.MinCost)
	logger := config.NewNopLogger()
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	container := apihttp.NewContainer(store, verifier, provider, telemetry.NewNoOpProbe(), logger, cfg.ServiceVersion)

	app.router = routes.SetupRouter(routes.HandlersConfig{
		AuthHandler:   container.AuthHandler,
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, routes.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Verifier:    verifier,
		RateLimiter: config.NewRateLimiter(config.NewMemoryStore(), zap.NewNop(), metrics, cfg.RateLimit),
		Metrics:     metrics,
		Registry:    registry,
	})

	return app
}

// do sends body as-is when it is a string and JSON-encodes it otherwise.
func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)

	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)

	return rr
}

// signUp registers an account and returns a bearer token for it.
func (a *testApp) signUp(email string) string {
	rr := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":       email,
		"password":    "password123",
		"displayName": "Tester",
	})

	if rr.Code != http.StatusCreated {
		panic("register failed: " + rr.Body.String())
	}

	token := decode[tokenData](a.do(http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"email":    email,
		"password": "password123",
	}))

	return token.Data.Token
}

func decode[T any](rr *httptest.ResponseRecorder) envelope[T] {
	var body envelope[T]
	_ = json.Unmarshal(rr.Body.Bytes(), &body)

	return body
}

func fields(details []domain.FieldError) []string {
	names := make([]string, 0, len(details))

	for _, detail := range details {
		names = append(names, detail.Field)
	}

	return names
}
