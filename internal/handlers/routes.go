package handlers

import (
	"rds-user-initializer/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxEventSize bounds custom-resource event bodies
const maxEventSize = 1 << 20

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Invoker        Invoker
	Logger         *logrus.Logger
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRoutes configures all routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	invocationHandler := NewInvocationHandler(config.Invoker)

	router.GET("/health", invocationHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/invocations", invocationHandler.Invoke)
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(config.Logger))
	router.Use(middleware.RequestSizeLimit(maxEventSize))
	router.Use(middleware.ContentTypeValidation("application/json"))

	if config.RateLimitRPS > 0 {
		router.Use(middleware.RateLimiter(config.RateLimitRPS, config.RateLimitBurst))
	}

	router.Use(middleware.ErrorHandler(config.Logger))
}

// NewRouter builds the engine with middleware and routes
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, config)
	SetupRoutes(router, config)
	return router
}
