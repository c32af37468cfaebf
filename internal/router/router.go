package router

import (
	"net/http"
	"time"

	"table_order_backend/internal/handlers"
	"table_order_backend/internal/middleware"
	"table_order_backend/internal/realtime"
	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Deps carries the wired services the HTTP surface depends on.
type Deps struct {
	Menu     services.MenuService
	Orders   services.OrderService
	Kitchen  services.KitchenService
	Waiting  services.WaitingService
	Chat     services.ChatService
	Auth     services.AuthService
	Registry *realtime.Registry

	MaxTables      int
	PingInterval   time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Deps) {
	RegisterValidators()

	menuHandler := handlers.NewMenuHandler(deps.Menu)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	kitchenHandler := handlers.NewKitchenHandler(deps.Kitchen)
	waitingHandler := handlers.NewWaitingHandler(deps.Waiting)
	chatHandler := handlers.NewChatHandler(deps.Chat)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	var pongWait time.Duration
	if deps.PingInterval > 0 {
		pongWait = 2 * deps.PingInterval
	}
	wsHandler := handlers.NewWebSocketHandler(deps.Registry, deps.Auth, deps.MaxTables, pongWait, deps.AllowedOrigins)

	limiter := middleware.NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/ws/:table_id", wsHandler.Connect)

	apiV1 := engine.Group("/api/v1")
	SetupAuthRoutes(apiV1, authHandler, limiter)
	SetupTableRoutes(apiV1, menuHandler, orderHandler, chatHandler, limiter)
	SetupWaitingRoutes(apiV1, waitingHandler, limiter)

	admin := apiV1.Group("/admin")
	admin.Use(middleware.AdminAuth(deps.Auth))
	{
		SetupAdminOrderRoutes(admin, orderHandler, kitchenHandler)
		SetupAdminMenuRoutes(admin, menuHandler)
		SetupAdminWaitingRoutes(admin, waitingHandler)
	}
}

// RegisterValidators adds the custom binding tags used by request DTOs.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return utils.IsValidPhone(fl.Field().String())
	}); err != nil {
		utils.LogError(err, "Failed to register phone validator")
	}
}
