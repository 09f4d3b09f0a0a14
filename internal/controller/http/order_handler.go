package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/usecase"
	"github.com/director74/minicommerce/pkg/auth"
	apperrors "github.com/director74/minicommerce/pkg/errors"
)

// OrderHandler обрабатывает HTTP запросы к заказам
type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{orderUseCase: orderUseCase}
}

// RegisterRoutes регистрирует маршруты заказов, требующие авторизации
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// RegisterInternalRoutes регистрирует служебные маршруты для других сервисов
func (h *OrderHandler) RegisterInternalRoutes(router *gin.RouterGroup) {
	router.GET("/orders/statistics", h.GetStatistics)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse("пользователь не авторизован", nil))
		return
	}

	var req entity.CreateOrderRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderUseCase.CreateOrder(c.Request.Context(), userID, req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse("пользователь не авторизован", nil))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("некорректный идентификатор заказа", nil))
		return
	}

	resp, err := h.orderUseCase.GetOrder(c.Request.Context(), userID, orderID)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse("пользователь не авторизован", nil))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.orderUseCase.ListUserOrders(c.Request.Context(), userID, limit, offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse("пользователь не авторизован", nil))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.ErrorResponse("некорректный идентификатор заказа", nil))
		return
	}

	var req entity.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if !apperrors.BindJSON(c, &req) {
			return
		}
	}

	resp, err := h.orderUseCase.CancelOrder(c.Request.Context(), userID, orderID, req.Reason)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetStatistics(c *gin.Context) {
	resp, err := h.orderUseCase.GetStatistics(c.Request.Context())
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
