package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	authUC "github.com/fastygo/taskflow/usecase/auth"
)

// Authenticator is the account boundary used by AuthHandler.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*authUC.Result, error)
	SignIn(ctx context.Context, email, password string) (*authUC.Result, error)
	SignOut(ctx context.Context, sessionID string) error
	CurrentSession(ctx context.Context, sessionID string) (*domain.Session, error)
	RefreshSession(ctx context.Context, sessionID string) (*authUC.Result, error)
}

type AuthHandler struct {
	baseHandler
	uc Authenticator
}

func NewAuthHandler(uc Authenticator, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.CredentialsRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.SignUp(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, res)
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.CredentialsRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.badRequest(ctx, "email and password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.SignIn(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, res)
}

// @Summary Sign out and drop the loaded workspace
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SignOut(stdCtx, httpcontext.SessionID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Current session
// @Tags auth
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.CurrentSession(stdCtx, httpcontext.SessionID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Extend the current session
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.RefreshSession(stdCtx, httpcontext.SessionID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, res)
}
