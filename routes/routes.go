package routes

import (
	"order-service/controllers"
	"order-service/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orders := r.Group("/api/orders")
	orders.Use(middleware.AuthMiddleware())

	// lifecycle workflow
	orders.POST("/placeOrder", middleware.RateLimitMiddleware(), oc.PlaceOrder)
	orders.GET("/viewOrders/:userId", oc.ViewOrders)
	orders.POST("/deleteOrder", oc.CancelOrder)
	orders.POST("/refundOrder", oc.RefundOrder)

	// standard CRUD
	orders.POST("", oc.CreateOrder)
	orders.GET("", oc.GetOrders)
	orders.GET("/:id", oc.GetOrderByID)
	orders.GET("/:id/payment", oc.GetPaymentByOrderID)
	orders.PUT("/:id", oc.UpdateOrder)
	orders.PATCH("/:id", oc.PatchOrder)
	orders.DELETE("/:id", oc.DeleteOrder)
}
