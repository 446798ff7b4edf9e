package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/usecase/workspace"
)

type TaskHandler struct {
	workspaceHandler
}

func NewTaskHandler(workspaces Workspaces, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{workspaceHandler: newWorkspaceHandler(workspaces, adapter, logger)}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	filter, err := parseFilter(ctx)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return
	}
	h.with(ctx, func(_ context.Context, ws *workspace.Workspace) {
		tasks := ws.Tasks(filter)
		h.respondList(ctx, tasks, len(tasks))
	})
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		task, err := ws.CreateTask(stdCtx, req.Draft())
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusCreated, task)
	})
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	id := pathID(ctx)
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		task, err := ws.EditTask(stdCtx, id, req.Patch())
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusOK, task)
	})
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id := pathID(ctx)
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		if err := ws.DeleteTask(stdCtx, id); err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		ctx.SetStatusCode(http.StatusNoContent)
	})
}

// @Summary Toggle task completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	id := pathID(ctx)
	h.with(ctx, func(stdCtx context.Context, ws *workspace.Workspace) {
		task, err := ws.ToggleTask(stdCtx, id)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
			"task":    task,
			"profile": ws.Profile(),
		})
	})
}

func parseFilter(ctx *fasthttp.RequestCtx) (domain.TaskFilter, error) {
	filter := domain.TaskFilter{Status: domain.StatusAll}

	switch status := domain.TaskStatus(ctx.QueryArgs().Peek("status")); status {
	case "", domain.StatusAll:
	case domain.StatusActive, domain.StatusCompleted:
		filter.Status = status
	default:
		return filter, domain.NewError(domain.ErrCodeInvalid, "unknown status filter")
	}

	if raw := string(ctx.QueryArgs().Peek("category")); raw != "" && raw != "all" {
		category := domain.Category(raw)
		if !category.Valid() {
			return filter, domain.ErrInvalidCategory
		}
		filter.Category = category
	}
	return filter, nil
}
