package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/yungbote/pillars-backend/internal/http"
	httpH "github.com/yungbote/pillars-backend/internal/http/handlers"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Metrics      *httpH.MetricsHandler
	Chat         *httpH.ChatHandler
	Checkin      *httpH.CheckinHandler
	Gamification *httpH.GamificationHandler
	Memory       *httpH.MemoryHandler
	Item         *httpH.ItemHandler
	User         *httpH.UserHandler
	Persona      *httpH.PersonaHandler
}

func wireHandlers(log *logger.Logger, s Services, registry *personas.Registry, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:       httpH.NewHealthHandler(),
		Chat:         httpH.NewChatHandler(s.Chat),
		Checkin:      httpH.NewCheckinHandler(s.Checkins),
		Gamification: httpH.NewGamificationHandler(s.Gamification),
		Memory:       httpH.NewMemoryHandler(s.Memory),
		Item:         httpH.NewItemHandler(s.Items),
		User:         httpH.NewUserHandler(s.Profiles),
		Persona:      httpH.NewPersonaHandler(registry),
	}
	if metrics != nil {
		h.Metrics = httpH.NewMetricsHandler(metrics.Handler())
	}
	return h
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         cfg.ServiceName,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		ChatHandler:         h.Chat,
		CheckinHandler:      h.Checkin,
		GamificationHandler: h.Gamification,
		MemoryHandler:       h.Memory,
		ItemHandler:         h.Item,
		UserHandler:         h.User,
		PersonaHandler:      h.Persona,
		HealthHandler:       h.Health,
		MetricsHandler:      h.Metrics,
	})
}
