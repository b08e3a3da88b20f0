package helper

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/response"
)

// productionKey is the gin context key that hides stack traces from error
// responses.
const productionKey = "production"

func SetProduction(c *gin.Context, production bool) {
	c.Set(productionKey, production)
}

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	body := response.SuccessResponse{
		Success: true,
		Data:    data,
	}

	if len(message) > 0 && message[0] != "" {
		body.Message = message[0]
	}

	c.JSON(statusCode, body)
}

func SendOK(c *gin.Context, data any, message ...string) {
	SendSuccess(c, http.StatusOK, data, message...)
}

func SendCreated(c *gin.Context, data any, message ...string) {
	SendSuccess(c, http.StatusCreated, data, message...)
}

// SendError renders any error as the error envelope. Errors outside the
// domain taxonomy become a 500 INTERNAL_ERROR.
func SendError(c *gin.Context, err error) {
	appErr := domain.AsError(err)

	body := response.ErrorResponse{
		Success:    false,
		Error:      appErr.Message,
		Code:       appErr.Code,
		StatusCode: appErr.StatusCode(),
		Details:    appErr.Details,
	}

	if !c.GetBool(productionKey) {
		body.Stack = appErr.Stack()
	}

	_ = c.Error(err)

	c.AbortWithStatusJSON(body.StatusCode, body)
}

// SendRateLimited is the only error response outside the domain taxonomy.
func SendRateLimited(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{
		Success:    false,
		Error:      message,
		Code:       domain.CodeRateLimitExceeded,
		StatusCode: http.StatusTooManyRequests,
	})
}
