package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/usecase"
	apperrors "github.com/director74/minicommerce/pkg/errors"
)

// AuthHandler обрабатывает HTTP запросы регистрации и входа
type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

// RegisterRoutes регистрирует публичные маршруты аутентификации
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.authUseCase.Register(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.authUseCase.Login(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
