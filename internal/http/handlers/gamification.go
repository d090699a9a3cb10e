package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/services"
)

type GamificationHandler struct {
	gamification services.GamificationService
}

func NewGamificationHandler(gamification services.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamification: gamification}
}

// GET /api/users/:id/gamification
func (h *GamificationHandler) Summary(c *gin.Context) {
	sum, err := h.gamification.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "gamification": sum})
}

// POST /api/users/:id/streak/freeze
func (h *GamificationHandler) ActivateFreeze(c *gin.Context) {
	st, err := h.gamification.ActivateFreeze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"ok":               true,
		"currentStreak":    st.Current,
		"longestStreak":    st.Longest,
		"freezesRemaining": st.FreezesRemaining,
		"freezeActiveDate": st.FreezeActiveDate,
	})
}

// GET /api/users/:id/quests/today
func (h *GamificationHandler) TodayQuests(c *gin.Context) {
	quests, err := h.gamification.TodayQuests(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "day": h.gamification.Today(), "quests": quests})
}
