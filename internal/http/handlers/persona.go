package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/http/response"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

type personaView struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Kind   personas.Kind `json:"kind"`
	Pillar pillars.ID    `json:"pillar,omitempty"`
	Intro  string        `json:"intro"`
	Topics []string      `json:"topics"`
}

type PersonaHandler struct {
	registry *personas.Registry
}

func NewPersonaHandler(registry *personas.Registry) *PersonaHandler {
	return &PersonaHandler{registry: registry}
}

// GET /api/personas
func (h *PersonaHandler) List(c *gin.Context) {
	all := h.registry.All()
	out := make([]personaView, 0, len(all))
	for _, p := range all {
		v := personaView{ID: p.ID, Name: p.Name, Kind: p.Kind, Pillar: p.Pillar, Intro: p.Intro, Topics: make([]string, 0, len(p.Topics))}
		for _, t := range p.Topics {
			v.Topics = append(v.Topics, t.Tag)
		}
		out = append(out, v)
	}
	response.RespondOK(c, gin.H{"ok": true, "personas": out})
}
