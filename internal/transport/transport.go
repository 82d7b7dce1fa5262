package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shutterdesk/shutterdesk/internal/transport/middleware"
)

func InitRoutes(clientHandler *ClientHandler, bookingHandler *BookingHandler, paymentHandler *PaymentHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// Stripe posts here. Outside /api/v1 so the path can be registered as-is
	// in the Stripe dashboard.
	router.POST("/webhooks/stripe", paymentHandler.HandleStripeWebhook)

	// API routes
	api := router.Group("/api/v1")
	{
		clients := api.Group("/clients")
		{
			clients.POST("", clientHandler.CreateClient)
			clients.GET("", clientHandler.GetAllClients)
			clients.GET("/:id", clientHandler.GetClient)
			clients.PUT("/:id", clientHandler.UpdateClient)
			clients.DELETE("/:id", clientHandler.DeleteClient)
			clients.GET("/:id/bookings", bookingHandler.GetClientBookings)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("", bookingHandler.GetAllBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.PUT("/:id", bookingHandler.UpdateBooking)
			bookings.DELETE("/:id", bookingHandler.DeleteBooking)
			bookings.POST("/:id/proposal", bookingHandler.SendProposal)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/checkout", paymentHandler.CreateCheckoutSession)
		}

		api.GET("/stats", bookingHandler.GetStats)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
