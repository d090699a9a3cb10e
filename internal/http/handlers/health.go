package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// MetricsHandler serves the Prometheus registry.
type MetricsHandler struct {
	h http.Handler
}

func NewMetricsHandler(h http.Handler) *MetricsHandler { return &MetricsHandler{h: h} }

func (h *MetricsHandler) Serve(c *gin.Context) {
	h.h.ServeHTTP(c.Writer, c.Request)
}
