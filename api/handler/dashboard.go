package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/usecase/workspace"
)

type DashboardHandler struct {
	workspaceHandler
	now func() time.Time
}

func NewDashboardHandler(workspaces Workspaces, adapter *httpcontext.Adapter, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		workspaceHandler: newWorkspaceHandler(workspaces, adapter, logger),
		now:              time.Now,
	}
}

// @Summary Task statistics and recent activity
// @Tags dashboard
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(ctx *fasthttp.RequestCtx) {
	now := h.now()
	if tz := string(ctx.QueryArgs().Peek("tz")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			h.badRequest(ctx, "unknown time zone")
			return
		}
		now = now.In(loc)
	}

	h.with(ctx, func(_ context.Context, ws *workspace.Workspace) {
		h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
			"stats":   ws.Dashboard(now),
			"profile": ws.Profile(),
		})
	})
}
