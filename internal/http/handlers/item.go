package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/services"
)

type ItemHandler struct {
	items services.ItemService
}

func NewItemHandler(items services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// GET /api/users/:id/items?pillar=sleep
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.items.List(c.Request.Context(), c.Param("id"), c.Query("pillar"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "items": items})
}

// POST /api/users/:id/items/:itemId/complete
func (h *ItemHandler) Complete(c *gin.Context) {
	item, rewards, err := h.items.Complete(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "item": item, "rewards": rewards})
}
