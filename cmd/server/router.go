package main

import (
	"github.com/Anoka2002/codecraftagent/internal/handlers"
	"github.com/Anoka2002/codecraftagent/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/Anoka2002/codecraftagent/docs" // Swagger docs
)

// routerDeps is everything the HTTP surface needs
type routerDeps struct {
	logger     *zap.Logger
	generation *handlers.GenerationHandler
	health     *handlers.HealthHandler
	limiter    middleware.Limiter
	breaker    *middleware.CircuitBreaker
	jwtSecret  string
	tracing    bool
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.tracing {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", deps.health.Health)
	router.GET("/health/deep", deps.health.DeepHealth)

	// Generation: optional auth, per-client rate limit, circuit breaker on the completion service
	generate := []gin.HandlerFunc{
		middleware.Auth(deps.jwtSecret, deps.logger),
		middleware.RateLimitMiddleware(deps.limiter, deps.logger),
		middleware.CircuitBreakerMiddleware(deps.breaker),
		deps.generation.GenerateCode,
	}
	router.POST("/generate_code", generate...)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/generate_code", generate...)
	}

	return router
}
