package response

import (
	"time"

	"todoapi/internal/core/domain"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"stack,omitempty"`
}

type ValidationError = domain.FieldError

type TodoListResponse struct {
	Items      []domain.Todo   `json:"items"`
	Pagination domain.PageInfo `json:"pagination"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
