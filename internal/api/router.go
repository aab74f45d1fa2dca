package api

import (
	"net/http"
	"time"

	"promo-pulse/internal/config"
	metricspkg "promo-pulse/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter собирает HTTP-маршрутизатор со всеми middleware и маршрутами
func NewRouter(cfg *config.Config, h *Handler, metricsHandler *metricspkg.Handler, m *metricspkg.Metrics, logger *zap.Logger) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(Metrics(m))

	// CORS: открытый origin, preflight OPTIONS отвечается middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/health", gin.WrapF(metricsHandler.HealthHandler))
	r.GET("/ready", gin.WrapF(metricsHandler.ReadyHandler))
	r.GET("/metrics", gin.WrapH(metricsHandler.MetricsHandler()))

	v1 := r.Group("/api/v1")
	{
		referrals := v1.Group("/referrals")
		{
			referrals.POST("/signup", h.TrackSignup)
			referrals.POST("/conversion", h.TrackConversion)
			referrals.POST("/lookup", h.LookupReferral)
		}

		v1.POST("/leads", h.CaptureLead)
		v1.POST("/plan/features", h.ResolvePlanFeatures)
		v1.POST("/chat", h.Chat)
		v1.POST("/geocode", h.Geocode)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
