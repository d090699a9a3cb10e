package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/services"
)

type MemoryHandler struct {
	memory services.MemoryService
}

func NewMemoryHandler(memory services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memory: memory}
}

// GET /api/users/:id/memory
func (h *MemoryHandler) Get(c *gin.Context) {
	view, err := h.memory.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "memory": view})
}

// DELETE /api/users/:id/memory/:pillar
func (h *MemoryHandler) Reset(c *gin.Context) {
	deleted, err := h.memory.Reset(c.Request.Context(), c.Param("id"), c.Param("pillar"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "deleted": deleted})
}
