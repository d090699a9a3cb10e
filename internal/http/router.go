package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pillars-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pillars-backend/internal/http/middleware"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	ChatHandler         *httpH.ChatHandler
	CheckinHandler      *httpH.CheckinHandler
	GamificationHandler *httpH.GamificationHandler
	MemoryHandler       *httpH.MemoryHandler
	ItemHandler         *httpH.ItemHandler
	UserHandler         *httpH.UserHandler
	PersonaHandler      *httpH.PersonaHandler

	HealthHandler  *httpH.HealthHandler
	MetricsHandler *httpH.MetricsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/healthcheck"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", cfg.MetricsHandler.Serve)
	}

	// Chat
	if cfg.ChatHandler != nil {
		r.POST("/chat", cfg.ChatHandler.Chat)
	}

	api := r.Group("/api")
	{
		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.Chat)
		}

		// Personas
		if cfg.PersonaHandler != nil {
			api.GET("/personas", cfg.PersonaHandler.List)
		}

		// Check-ins
		if cfg.CheckinHandler != nil {
			api.POST("/checkins", cfg.CheckinHandler.Create)
			api.GET("/users/:id/checkins", cfg.CheckinHandler.List)
		}

		// Users
		if cfg.UserHandler != nil {
			api.GET("/users/:id", cfg.UserHandler.GetProfile)
			api.PUT("/users/:id", cfg.UserHandler.UpdateProfile)
		}

		// Gamification
		if cfg.GamificationHandler != nil {
			api.GET("/users/:id/gamification", cfg.GamificationHandler.Summary)
			api.POST("/users/:id/streak/freeze", cfg.GamificationHandler.ActivateFreeze)
			api.GET("/users/:id/quests/today", cfg.GamificationHandler.TodayQuests)
		}

		// Memory
		if cfg.MemoryHandler != nil {
			api.GET("/users/:id/memory", cfg.MemoryHandler.Get)
			api.DELETE("/users/:id/memory/:pillar", cfg.MemoryHandler.Reset)
		}

		// Items
		if cfg.ItemHandler != nil {
			api.GET("/users/:id/items", cfg.ItemHandler.List)
			api.POST("/users/:id/items/:itemId/complete", cfg.ItemHandler.Complete)
		}
	}

	return r
}
