package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/services"
)

type CheckinHandler struct {
	checkins services.CheckinService
}

func NewCheckinHandler(checkins services.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

// POST /api/checkins
func (h *CheckinHandler) Create(c *gin.Context) {
	var req services.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	res, err := h.checkins.Record(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "checkin": res.Checkin, "rewards": res.Rewards})
}

// GET /api/users/:id/checkins?limit=N
func (h *CheckinHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	rows, err := h.checkins.ListRecent(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "checkins": rows})
}
