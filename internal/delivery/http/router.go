package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tradesim/internal/domain"
	custommiddleware "tradesim/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	WebHandler *WebHandler
	Sessions   domain.SessionRepository
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Public routes
	e.GET("/login", config.WebHandler.HandleLogin)
	e.POST("/login", config.WebHandler.HandleLoginPost)
	e.GET("/register", config.WebHandler.HandleRegister)
	e.POST("/register", config.WebHandler.HandleRegisterPost)

	// Authenticated routes
	auth := e.Group("", custommiddleware.SessionAuth(config.Sessions))
	{
		auth.GET("/", config.WebHandler.HandleIndex)
		auth.GET("/buy", config.WebHandler.HandleBuy)
		auth.POST("/buy", config.WebHandler.HandleBuyPost)
		auth.GET("/sell", config.WebHandler.HandleSell)
		auth.POST("/sell", config.WebHandler.HandleSellPost)
		auth.GET("/quote", config.WebHandler.HandleQuote)
		auth.POST("/quote", config.WebHandler.HandleQuotePost)
		auth.GET("/history", config.WebHandler.HandleHistory)
		auth.GET("/logout", config.WebHandler.HandleLogout)
	}
}
