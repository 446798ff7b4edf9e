package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	appLogger "github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/usecase/workspace"
)

// Workspaces hands out the loaded workspace of a user.
type Workspaces interface {
	Get(ctx context.Context, userID string) (*workspace.Workspace, error)
}

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, count int) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, transport.ListMeta{Count: count}))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		appLogger.FromContext(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())), zap.Error(err))
		message = "internal error"
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) badRequest(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.badRequest(ctx, domain.ErrInvalidPayload.Error())
		return false
	}
	return true
}

func (h baseHandler) userID(ctx *fasthttp.RequestCtx) string {
	userID := httpcontext.UserID(ctx)
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing user id", nil))
	}
	return userID
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// workspaceHandler resolves the caller's workspace before running a handler.
type workspaceHandler struct {
	baseHandler
	workspaces Workspaces
}

func newWorkspaceHandler(workspaces Workspaces, adapter *httpcontext.Adapter, logger *zap.Logger) workspaceHandler {
	return workspaceHandler{baseHandler: newBaseHandler(adapter, logger), workspaces: workspaces}
}

// with loads the workspace and runs fn with a request-scoped context.
func (h workspaceHandler) with(ctx *fasthttp.RequestCtx, fn func(stdCtx context.Context, ws *workspace.Workspace)) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ws, err := h.workspaces.Get(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	fn(stdCtx, ws)
}
