package router

import (
	"table_order_backend/internal/handlers"
	"table_order_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, limiter *middleware.RateLimiter) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", limiter.Middleware(), authHandler.Login)
	}
}

// SetupTableRoutes sets up the public routes used by table devices.
func SetupTableRoutes(apiGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler, orderHandler *handlers.OrderHandler, chatHandler *handlers.ChatHandler, limiter *middleware.RateLimiter) {
	apiGroup.GET("/menu", menuHandler.ListActiveItems)
	apiGroup.POST("/gift-orders", limiter.Middleware(), orderHandler.SubmitGiftOrder)

	tableRoutes := apiGroup.Group("/tables/:table_id")
	{
		tableRoutes.POST("/orders", limiter.Middleware(), orderHandler.SubmitOrder)
		tableRoutes.GET("/orders", orderHandler.TableOrders)
		tableRoutes.PUT("/nickname", chatHandler.SetNickname)
	}

	chatRoutes := apiGroup.Group("/chat")
	{
		chatRoutes.POST("/messages", limiter.Middleware(), chatHandler.SendMessage)
		chatRoutes.GET("/messages", chatHandler.RecentMessages)
		chatRoutes.GET("/online", chatHandler.OnlineTables)
	}
}

// SetupWaitingRoutes sets up public waiting-list registration.
func SetupWaitingRoutes(apiGroup *gin.RouterGroup, waitingHandler *handlers.WaitingHandler, limiter *middleware.RateLimiter) {
	apiGroup.POST("/waitings", limiter.Middleware(), waitingHandler.AddWaiting)
}

// SetupAdminOrderRoutes sets up order payment and kitchen routes.
func SetupAdminOrderRoutes(adminGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, kitchenHandler *handlers.KitchenHandler) {
	orderRoutes := adminGroup.Group("/orders")
	{
		orderRoutes.GET("/pending", orderHandler.PendingOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrder)
		orderRoutes.POST("/:id/confirm", orderHandler.ConfirmOrder)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
	}

	adminGroup.GET("/kitchen/board", orderHandler.KitchenBoard)

	itemRoutes := adminGroup.Group("/items")
	{
		itemRoutes.POST("/:id/start", kitchenHandler.StartItem)
		itemRoutes.POST("/:id/complete", kitchenHandler.CompleteItem)
		itemRoutes.POST("/:id/cancel", kitchenHandler.CancelItem)
	}
}

// SetupAdminMenuRoutes sets up catalog management.
func SetupAdminMenuRoutes(adminGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := adminGroup.Group("/menu")
	{
		menuRoutes.GET("", menuHandler.ListItems)
		menuRoutes.POST("", menuHandler.CreateItem)
		menuRoutes.GET("/:id", menuHandler.GetItem)
		menuRoutes.PUT("/:id", menuHandler.UpdateItem)
		menuRoutes.DELETE("/:id", menuHandler.DeactivateItem)
		menuRoutes.POST("/:id/activate", menuHandler.ActivateItem)
	}
}

// SetupAdminWaitingRoutes sets up waiting-list management.
func SetupAdminWaitingRoutes(adminGroup *gin.RouterGroup, waitingHandler *handlers.WaitingHandler) {
	waitingRoutes := adminGroup.Group("/waitings")
	{
		waitingRoutes.GET("", waitingHandler.ActiveQueue)
		waitingRoutes.GET("/stats/today", waitingHandler.TodayStats)
		waitingRoutes.POST("/:id/call", waitingHandler.CallWaiting)
		waitingRoutes.POST("/:id/seat", waitingHandler.SeatWaiting)
		waitingRoutes.POST("/:id/cancel", waitingHandler.CancelWaiting)
	}
}
