package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/usecase/focus"
	"github.com/fastygo/taskflow/usecase/workspace"
)

type FocusHandler struct {
	workspaceHandler
}

func NewFocusHandler(workspaces Workspaces, adapter *httpcontext.Adapter, logger *zap.Logger) *FocusHandler {
	return &FocusHandler{workspaceHandler: newWorkspaceHandler(workspaces, adapter, logger)}
}

// @Summary Start a focus session on a task
// @Tags focus
// @Router /api/v1/tasks/{id}/focus [post]
func (h *FocusHandler) Start(ctx *fasthttp.RequestCtx) {
	id := pathID(ctx)
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		h.respondStatus(ctx, stdCtx, http.StatusCreated)(ws.StartFocus(id))
	})
}

// @Summary Current focus session
// @Tags focus
// @Router /api/v1/focus [get]
func (h *FocusHandler) Status(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(_ context.Context, ws *workspace.Workspace) {
		h.respondSuccess(ctx, http.StatusOK, ws.FocusStatus())
	})
}

// @Summary Pause the focus session
// @Tags focus
// @Router /api/v1/focus/pause [post]
func (h *FocusHandler) Pause(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		h.respondStatus(ctx, stdCtx, http.StatusOK)(ws.PauseFocus())
	})
}

// @Summary Resume the focus session
// @Tags focus
// @Router /api/v1/focus/resume [post]
func (h *FocusHandler) Resume(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		h.respondStatus(ctx, stdCtx, http.StatusOK)(ws.ResumeFocus())
	})
}

// @Summary Cancel the focus session
// @Tags focus
// @Router /api/v1/focus [delete]
func (h *FocusHandler) Cancel(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		if err := ws.CancelFocus(); err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		ctx.SetStatusCode(http.StatusNoContent)
	})
}

func (h *FocusHandler) respondStatus(ctx *fasthttp.RequestCtx, stdCtx context.Context, code int) func(focus.Status, error) {
	return func(status focus.Status, err error) {
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondSuccess(ctx, code, status)
	}
}
