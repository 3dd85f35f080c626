package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/foodseed/backend/internal/api"
	"github.com/pageza/foodseed/backend/internal/middleware"
	"go.uber.org/zap"
)

// Deps are the handlers and middleware the router wires together
type Deps struct {
	Seed        *api.SeedHandler
	Health      *api.HealthHandler
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	Logger      *zap.SugaredLogger
}

// SetupRouter configures the application routes
func SetupRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(deps.CORSOrigins))

	router.GET("/health", deps.Health.Health)

	// Only the trigger is guarded; run reports are read-only
	guards := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.Tokens),
		middleware.RequireAdmin(),
	}
	if deps.RateLimiter != nil {
		guards = append(guards, deps.RateLimiter.Middleware())
	}

	v1 := router.Group("/api/v1")
	deps.Seed.RegisterRoutes(v1, guards...)

	return router
}
