package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/itsDNNS/docsight-sub000/internal/logger"
	"github.com/itsDNNS/docsight-sub000/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	router.GET("/ws", h.streamAuth, h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.bearerMiddleware)
	{
		h.registerCollectorRoutes(api)
		h.registerSnapshotRoutes(api)
		h.registerEventRoutes(api)
		h.registerThresholdRoutes(api)
		api.GET("/speedtests", h.listSpeedtests)
	}
}

func (h *Handler) registerCollectorRoutes(api *gin.RouterGroup) {
	collectors := api.Group("/collectors")
	{
		collectors.GET("", h.listCollectors)
		collectors.POST("/:name/refresh", h.refreshCollector)
	}
}

func (h *Handler) registerSnapshotRoutes(api *gin.RouterGroup) {
	snapshots := api.Group("/snapshots")
	{
		snapshots.GET("", h.listSnapshots)
		snapshots.GET("/latest", h.latestSnapshot)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	{
		events.GET("", h.listEvents)
		events.POST("/:id/ack", h.ackEvent)
	}
}

func (h *Handler) registerThresholdRoutes(api *gin.RouterGroup) {
	th := api.Group("/thresholds")
	{
		th.GET("", h.getThresholds)
		th.POST("/reload", h.reloadThresholds)
	}
}
