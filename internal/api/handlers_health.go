// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 2 * time.Second

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	store   FloorplanStore
	editors EditorManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, store FloorplanStore, editors EditorManager) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		store:   store,
		editors: editors,
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Database       string `json:"database,omitempty"`
	EditorSessions int    `json:"editorSessions"`
}

// HandleHealth returns server health status. A failing database ping
// reports 503 so load balancers take the instance out.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok", Version: h.version}
	if h.editors != nil {
		resp.EditorSessions = h.editors.Count()
	}
	if h.store == nil {
		return c.JSON(http.StatusOK, resp)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
