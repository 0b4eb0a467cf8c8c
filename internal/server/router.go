package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins  []string
	LoginRatePerMin int
}

// NewRouter mounts every route behind the access pipeline for its role set.
func NewRouter(app *App, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	guard := middleware.NewAccessGuard(app.Tokens)
	anyRole := guard.Require()
	customer := guard.Require(models.RoleCustomer)
	provider := guard.Require(models.RoleProvider, models.RoleAdmin, models.RoleSuperAdmin)
	admin := guard.Require(models.AdminRoles...)
	superAdmin := guard.Require(models.RoleSuperAdmin)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMin, 5).Middleware()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes (no authentication required)
	router.POST("/register", app.Auth.Register)
	router.POST("/login", loginLimiter, app.Auth.Login)
	router.POST("/auth/refresh", app.Auth.RefreshToken)
	router.POST("/admin/login", loginLimiter, app.Auth.AdminLogin)
	router.GET("/admin/logout", app.Auth.AdminLogout)
	router.POST("/admin/logout", app.Auth.AdminLogout)

	// Public catalog
	router.GET("/services", app.Catalog.ListServices)
	router.GET("/services/:id", app.Catalog.GetService)
	router.GET("/services/:id/reviews", app.Review.ListServiceReviews)
	router.GET("/categories", app.Catalog.ListCategories)
	router.GET("/companies", app.Catalog.ListCompanies)
	router.GET("/companies/:id", app.Catalog.GetCompany)

	// Any authenticated role
	router.GET("/account", anyRole, app.Account.Profile)
	router.PUT("/account/password", anyRole, app.Auth.ChangePassword)
	router.GET("/notifications", anyRole, app.Inbox.ListNotifications)
	router.POST("/support", anyRole, app.Inbox.CreateSupportTicket)
	router.GET("/bookings/:id", anyRole, app.Booking.GetBooking)

	// Customer routes
	router.POST("/book/:service_id", customer, app.Booking.CreateBooking)
	router.GET("/orders", customer, app.Booking.ListOrders)
	router.POST("/bookings/:id/cancel", customer, app.Booking.CancelBooking)
	router.POST("/checkout/:booking_id", customer, app.Payment.Checkout)
	router.POST("/payment", customer, app.Payment.RecordPayment)
	router.GET("/transactions", customer, app.Payment.ListTransactions)
	router.POST("/reviews", customer, app.Review.SubmitReview)
	router.POST("/disputes", customer, app.Inbox.OpenDispute)

	// Ownership is checked by the query side, so admins may read these too.
	router.GET("/transactions/:id", anyRole, app.Payment.GetTransaction)
	router.GET("/transactions/:id/receipt", anyRole, app.Payment.Receipt)

	// Provider routes
	router.POST("/services", provider, app.Catalog.CreateService)
	router.PUT("/services/:id", provider, app.Catalog.UpdateService)
	router.DELETE("/services/:id", provider, app.Catalog.DeleteService)
	router.POST("/companies", provider, app.Catalog.CreateCompany)
	router.POST("/bookings/:id/confirm", provider, app.Booking.ConfirmBooking)
	router.POST("/bookings/:id/complete", provider, app.Booking.CompleteBooking)

	// Admin routes
	router.POST("/categories", admin, app.Catalog.CreateCategory)
	router.DELETE("/categories/:id", admin, app.Catalog.DeleteCategory)
	router.GET("/reviews", admin, app.Review.ListReviews)
	router.GET("/reviews/:id", admin, app.Review.GetReview)
	router.POST("/reviews/:id/approve", admin, app.Review.ApproveReview)
	router.POST("/reviews/:id/reject", admin, app.Review.RejectReview)
	router.DELETE("/reviews/:id", admin, app.Review.DeleteReview)
	router.GET("/admin/dashboard", admin, app.Admin.Dashboard)
	router.GET("/disputes", admin, app.Admin.ListDisputes)
	router.POST("/disputes/:id/resolve", admin, app.Inbox.ResolveDispute)
	router.GET("/support", admin, app.Admin.ListSupportTickets)

	accounts := router.Group("/admin/accounts", superAdmin)
	{
		accounts.GET("", app.Account.ListAccounts)
		accounts.POST("", app.Account.CreateAdmin)
		accounts.GET("/:id", app.Account.GetAccount)
		accounts.PUT("/:id/role", app.Account.UpdateRole)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	// The admin console authenticates with a cookie.
	cfg.AllowCredentials = true
	return cfg
}
