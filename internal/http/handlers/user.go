package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/services"
)

type UserHandler struct {
	profiles services.ProfileService
}

func NewUserHandler(profiles services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// GET /api/users/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(dbctx.Context{Ctx: c.Request.Context()}, c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "profile": p})
}

// PUT /api/users/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var upd services.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "profile": p})
}
