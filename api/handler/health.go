package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

// StatusSource reports dependency health.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"services": map[string]interface{}{
			"database": map[string]interface{}{
				"driver": status.Driver,
				"online": status.Database,
			},
			"redis": map[string]interface{}{
				"enabled": status.RedisEnabled,
				"online":  status.Redis,
			},
			"journal": map[string]interface{}{
				"online": status.Journal,
				"size":   status.JournalSize,
			},
		},
		"workspaces": status.Workspaces,
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
