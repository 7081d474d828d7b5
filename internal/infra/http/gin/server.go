package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"roomstay/internal/infra/config"
	"roomstay/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Pay(c *gin.Context)
	Cancel(c *gin.Context)
	Confirm(c *gin.Context)
	Complete(c *gin.Context)
	ReviewEligibility(c *gin.Context)
	Review(c *gin.Context)
	ReviewByID(c *gin.Context)
}

type RoomHTTP interface {
	Availability(c *gin.Context)
	CurrentDiscount(c *gin.Context)
}

type DiscountHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	ListTransactions(c *gin.Context)
	OwnerReviews(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Room           RoomHTTP
	Discount       DiscountHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.Env, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.TraceContext())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "Traceparent"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/payment", h.Booking.Pay)
		api.PUT("/bookings/:id/cancel", h.Booking.Cancel)
		api.PUT("/bookings/:id/confirm", h.Booking.Confirm)
		api.PUT("/bookings/:id/complete", h.Booking.Complete)
		api.GET("/bookings/:id/review-eligibility", h.Booking.ReviewEligibility)
		api.POST("/bookings/:id/review", h.Booking.Review)
		api.GET("/bookings/:id/review", h.Booking.ReviewByID)
		api.GET("/bookings/:id/review/:reviewId", h.Booking.ReviewByID)
	}
	if h.Room != nil {
		api.GET("/rooms/:id/availability", h.Room.Availability)
		api.GET("/rooms/:id/discount", h.Room.CurrentDiscount)
	}
	if h.Discount != nil {
		api.POST("/discounts", h.Discount.Create)
		api.GET("/discounts", h.Discount.List)
	}
	if h.Me != nil {
		api.GET("/me/bookings", h.Me.ListBookings)
		api.GET("/me/transactions", h.Me.ListTransactions)
		api.GET("/owner/reviews", h.Me.OwnerReviews)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
