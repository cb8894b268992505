package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/infra/config"
	"apexrentals/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Assets         AssetHTTP
	Availability   AvailabilityHTTP
	Booking        BookingHTTP
	Me             MeHTTP
	Owner          OwnerHTTP
	Reviews        ReviewsHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without binding an address, so tests can drive
// it through httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.TraceContext())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "traceparent"},
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

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Assets != nil {
		assets := api.Group("/assets")
		assets.GET("", h.Assets.Search)
		assets.POST("", h.Assets.Create)
		assets.GET("/:id", h.Assets.Get)
		assets.PUT("/:id", h.Assets.Update)
		assets.DELETE("/:id", h.Assets.Delete)
		assets.POST("/:id/images", h.Assets.UploadImage)
	}
	if h.Availability != nil {
		api.GET("/assets/:id/availability", h.Availability.Check)
		api.GET("/assets/:id/bookings", h.Availability.Windows)
	}
	if h.Reviews != nil {
		api.GET("/assets/:id/reviews", h.Reviews.ListByAsset)
		api.POST("/reviews", h.Reviews.Submit)
		api.GET("/users/:id/reviews", h.Reviews.ListByUser)
		api.GET("/me/reviews", h.Reviews.Mine)
		api.GET("/bookings/:id/review-eligibility", h.Reviews.Eligibility)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id", h.Booking.Transition)
	}
	if h.Me != nil {
		api.GET("/me/bookings", h.Me.ListBookings)
	}
	if h.Owner != nil {
		owner := api.Group("/owner")
		owner.GET("/assets", h.Owner.Assets)
		owner.GET("/earnings", h.Owner.Earnings)
	}
	if h.Admin != nil {
		api.POST("/admin/bookings/cleanup-expired", h.Admin.CleanupExpired)
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
