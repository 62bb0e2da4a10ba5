package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	PaymentHandler *handler.PaymentHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes. All of them require a caller identity.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware())
	{
		// Ride lifecycle routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.RequestRide)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/reject", deps.RideHandler.RejectRide)
			rides.POST("/:id/start", deps.RideHandler.StartTransit)
			rides.POST("/:id/advance", deps.RideHandler.AdvanceRide)
			rides.POST("/:id/pay", deps.PaymentHandler.CompletePayment)
			rides.POST("/:id/rate", deps.RideHandler.RateRide)
			rides.GET("/:id/receipt", deps.RideHandler.GetReceipt)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/apply", deps.DriverHandler.Apply)
			drivers.POST("/:id/approval", deps.DriverHandler.SetApproval)
			drivers.POST("/availability", deps.DriverHandler.SetAvailability)
			drivers.POST("/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}
	}

	return router
}
