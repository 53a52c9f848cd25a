package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"reportforge/internal/api/middleware"
	"reportforge/internal/monitor"
	"reportforge/internal/report"
)

// NewRouter builds the observability listener: health, metrics, performance
// aggregates and the websocket event tail. The report control surface is
// intentionally not served here.
func NewRouter(
	mon *monitor.Monitor,
	store *report.Store,
	blobs ArtifactStore,
	redisClient *redis.Client,
	logger *slog.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		gin.Recovery(),
	)

	opsHandler := NewOpsHandler(mon, store, blobs)
	wsHandler := NewEventStreamHandler(redisClient, logger)

	router.GET("/health", opsHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/performance", opsHandler.Performance)
		v1.GET("/analytics", opsHandler.Analytics)
		v1.POST("/reports/:id/quality", opsHandler.RecordQuality)
		v1.GET("/reports/:id/artifact", opsHandler.Artifact)
		v1.GET("/events/ws", wsHandler.HandleConnection)
	}

	return router
}
