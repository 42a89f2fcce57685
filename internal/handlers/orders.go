package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wastemarket/mobile/internal/models"
)

func (h HandlerSet) CreateOrder(c *gin.Context) {
	var req models.CreateOrderData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OrderResponse{Success: true, Message: "Order created successfully", Order: &order})
}

func (h HandlerSet) OrderHistory(c *gin.Context) {
	orders, page, err := h.orders.History(c.Request.Context(), currentUser(c), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrdersResponse{Success: true, Orders: nonNil(orders), Pagination: page})
}

func (h HandlerSet) OrderDetails(c *gin.Context) {
	order, err := h.orders.Details(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Order: &order})
}

func (h HandlerSet) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Message: "Order status updated", Order: &order})
}

// CancelOrder accepts an empty body; the reason is optional.
func (h HandlerSet) CancelOrder(c *gin.Context) {
	var req models.CancelOrderData
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badBody(c)
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), currentUser(c), c.Param("id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Message: "Order cancelled", Order: &order})
}
