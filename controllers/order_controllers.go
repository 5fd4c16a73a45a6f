package controllers

import (
	"net/http"
	"strconv"

	"order-service/middleware"
	"order-service/models"
	"order-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CancelOrRefundRequest is the body of the cancel and refund endpoints.
type CancelOrRefundRequest struct {
	ID uuid.UUID `json:"id" binding:"required"`
}

// PlaceOrder handles POST /api/orders/placeOrder
func (oc *OrderController) PlaceOrder(ctx *gin.Context) {
	var req services.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.UserID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A new order cannot be created as there is no userId"})
		return
	}
	// the gateway already authenticated the caller; the body may not order on
	// someone else's behalf
	if claimed, err := middleware.GetUserID(ctx); err == nil && claimed != strconv.FormatInt(req.UserID, 10) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "userId does not match the authenticated user"})
		return
	}

	order, serviceErr := oc.orderService.PlaceOrder(ctx.Request.Context(), &req)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// ViewOrders handles GET /api/orders/viewOrders/:userId and returns the
// order + items aggregates for the user, empty list when there are none.
func (oc *OrderController) ViewOrders(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	views, serviceErr := oc.orderService.GetUserOrders(ctx.Request.Context(), userID)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, views)
}

// CancelOrder handles POST /api/orders/deleteOrder
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	var req CancelOrRefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res := oc.orderService.CancelOrder(ctx.Request.Context(), req.ID)
	switch res.Outcome {
	case services.TransitionOK:
		ctx.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully"})
	case services.TransitionNotFound, services.TransitionInvalid:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found or already cancelled"})
	case services.TransitionConflict:
		ctx.JSON(http.StatusConflict, gin.H{"error": "Order status changed concurrently, retry"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
	}
}

// RefundOrder handles POST /api/orders/refundOrder
func (oc *OrderController) RefundOrder(ctx *gin.Context) {
	var req CancelOrRefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res := oc.orderService.RefundOrder(ctx.Request.Context(), req.ID)
	switch res.Outcome {
	case services.TransitionOK:
		ctx.JSON(http.StatusOK, gin.H{"message": "Order refund successfully"})
	case services.TransitionNotFound, services.TransitionInvalid:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found or not refundable"})
	case services.TransitionConflict:
		ctx.JSON(http.StatusConflict, gin.H{"error": "Order status changed concurrently, retry"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refund order"})
	}
}

// CreateOrder handles POST /api/orders (plain CRUD create)
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var order models.Order
	if err := ctx.ShouldBindJSON(&order); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if order.ID != uuid.Nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A new order cannot already have an ID"})
		return
	}

	created, serviceErr := oc.orderService.CreateOrder(ctx.Request.Context(), &order)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// GetOrders handles GET /api/orders with pagination, or the payment-is-null
// audit filter.
func (oc *OrderController) GetOrders(ctx *gin.Context) {
	if ctx.Query("filter") == "payment-is-null" {
		orders, serviceErr := oc.orderService.GetOrdersWithoutPayment(ctx.Request.Context())
		if serviceErr != nil {
			ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, orders)
		return
	}

	page, limit := parsePaginationParams(ctx)
	result, serviceErr := oc.orderService.GetAllOrders(ctx.Request.Context(), page, limit)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetOrderByID handles GET /api/orders/:id
func (oc *OrderController) GetOrderByID(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	order, serviceErr := oc.orderService.GetOrderByID(ctx.Request.Context(), orderUUID)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// GetPaymentByOrderID handles GET /api/orders/:id/payment
func (oc *OrderController) GetPaymentByOrderID(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	payment, serviceErr := oc.orderService.GetPaymentByOrderID(ctx.Request.Context(), orderUUID)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, payment)
}

// UpdateOrder handles PUT /api/orders/:id
func (oc *OrderController) UpdateOrder(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	var order models.Order
	if err := ctx.ShouldBindJSON(&order); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if order.ID == uuid.Nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	if order.ID != orderUUID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	updated, serviceErr := oc.orderService.UpdateOrder(ctx.Request.Context(), &order)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// PatchOrder handles PATCH /api/orders/:id, ignoring absent fields.
func (oc *OrderController) PatchOrder(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	var upd services.OrderUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	updated, serviceErr := oc.orderService.PartialUpdateOrder(ctx.Request.Context(), orderUUID, &upd)
	if serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DeleteOrder handles DELETE /api/orders/:id
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	if serviceErr := oc.orderService.DeleteOrder(ctx.Request.Context(), orderUUID); serviceErr != nil {
		ctx.JSON(serviceErr.StatusCode, gin.H{"error": serviceErr.Message})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func parseOrderID(ctx *gin.Context) (uuid.UUID, bool) {
	orderUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return uuid.Nil, false
	}
	return orderUUID, true
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	page := ctx.DefaultQuery("page", "1")
	limit := ctx.DefaultQuery("limit", "10")

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		pageInt = p
	}

	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}
