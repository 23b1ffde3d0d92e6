package handlers

import (
	"controlling_window/internal/logger"
	"controlling_window/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
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

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Status stream over WebSocket on the same port; the token may come
	// from ?access_token= since browsers cannot set upgrade headers.
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerWindowRoutes(api)
		h.registerLogRoutes(api)
		h.registerSampleRoutes(api)
	}
}

func (h *Handler) registerWindowRoutes(api *gin.RouterGroup) {
	window := api.Group("/window")
	{
		// Body: {"minutes":15}
		window.POST("/open", h.openWindow)
		// Body: {"minutes":30} or {"manual":true}
		window.POST("/close", h.closeWindow)
		window.GET("/state", h.getState)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerSampleRoutes(api *gin.RouterGroup) {
	api.GET("/samples", h.getSamples)
	api.GET("/samples.csv", h.exportSamplesCSV)
}
