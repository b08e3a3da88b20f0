package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todoapi/internal/adapter/http/validation"
	"todoapi/internal/core/domain"
)

// normalizer is implemented by requests that clean their input before it is
// validated.
type normalizer interface {
	Normalize()
}

func bindJSON(c *gin.Context, payload any) error {
	if err := c.ShouldBindJSON(payload); err != nil {
		return domain.NewValidationError("Invalid request body", []domain.FieldError{
			{Field: "body", Message: "body must be valid JSON matching the expected types"},
		})
	}

	if n, ok := payload.(normalizer); ok {
		n.Normalize()
	}

	return validation.Validate(payload)
}

func bindQuery(c *gin.Context, query any) error {
	if err := c.ShouldBindQuery(query); err != nil {
		return domain.NewValidationError("Invalid query parameters", []domain.FieldError{
			{Field: "query", Message: err.Error()},
		})
	}

	if n, ok := query.(normalizer); ok {
		n.Normalize()
	}

	return validation.Validate(query)
}

func pathID(c *gin.Context) (string, error) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewValidationError("Validation failed", []domain.FieldError{
			{Field: "id", Message: "id must be a valid UUID"},
		})
	}

	return id, nil
}
