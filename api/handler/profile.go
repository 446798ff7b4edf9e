package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/usecase/workspace"
)

const defaultAwardLimit = 50

type ProfileHandler struct {
	workspaceHandler
}

func NewProfileHandler(workspaces Workspaces, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{workspaceHandler: newWorkspaceHandler(workspaces, adapter, logger)}
}

// @Summary Get gamification profile
// @Tags profile
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(_ context.Context, ws *workspace.Workspace) {
		h.respondSuccess(ctx, http.StatusOK, ws.Profile())
	})
}

// @Summary Reset points and level
// @Tags profile
// @Router /api/v1/profile/reset [post]
func (h *ProfileHandler) ResetProfile(ctx *fasthttp.RequestCtx) {
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		profile, err := ws.ResetProfile(stdCtx)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusOK, profile)
	})
}

// @Summary Award history
// @Tags profile
// @Router /api/v1/profile/awards [get]
func (h *ProfileHandler) Awards(ctx *fasthttp.RequestCtx) {
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), defaultAwardLimit)
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		awards, err := ws.Awards(limit)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondList(ctx, awards, len(awards))
	})
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil && v > 0 {
		return v
	}
	return fallback
}
