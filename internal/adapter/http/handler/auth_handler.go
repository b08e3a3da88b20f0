package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	. "todoapi/internal/adapter/http/helper"
	"todoapi/internal/adapter/http/middleware"
	"todoapi/internal/adapter/http/validation"
	"todoapi/internal/core/model/request"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"
	"todoapi/pkg/config"
)

type AuthHandler struct {
	svc    port.AuthService
	Logger *config.LokiLogger
}

func NewAuthHandler(svc port.AuthService, logger *config.LokiLogger) *AuthHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &AuthHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (a *AuthHandler) Register(c *gin.Context) {
	var params request.RegisterRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	user, err := a.svc.Register(c.Request.Context(), params.ToAccount())

	if err != nil {
		SendError(c, err)
		return
	}

	a.Logger.Info(c.Request.Context(), "User registered", zap.String("user_id", user.ExternalID))

	SendCreated(c, user, "User registered successfully")
}

func (a *AuthHandler) Login(c *gin.Context) {
	var params request.LoginRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	user, err := a.svc.Login(c.Request.Context(), params.Email, params.IDToken)

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, user, "Login successful")
}

// Token exchanges email and password for a bearer token. Only available
// with the local identity provider.
func (a *AuthHandler) Token(c *gin.Context) {
	var params request.TokenRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	token, err := a.svc.IssueToken(c.Request.Context(), params.Email, params.Password)

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, response.TokenResponse{Token: token, TokenType: "Bearer"})
}

func (a *AuthHandler) Me(c *gin.Context) {
	user, err := a.svc.Me(c.Request.Context(), middleware.UserID(c))

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, user)
}

func (a *AuthHandler) UpdateMe(c *gin.Context) {
	var params request.UpdateProfileRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	if err := validation.NullFieldsError(params.NullNotAllowed()); err != nil {
		SendError(c, err)
		return
	}

	user, err := a.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), params.ToChanges())

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, user, "Profile updated successfully")
}

func (a *AuthHandler) DeleteMe(c *gin.Context) {
	if err := a.svc.Deactivate(c.Request.Context(), middleware.UserID(c)); err != nil {
		SendError(c, err)
		return
	}

	a.Logger.Info(c.Request.Context(), "User deactivated", zap.String("user_id", middleware.UserID(c)))

	SendOK(c, nil, "Account deactivated successfully")
}

// Logout is stateless: the client discards its token.
func (a *AuthHandler) Logout(c *gin.Context) {
	SendOK(c, nil, "Logged out successfully")
}
