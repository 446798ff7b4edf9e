package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskflow/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	if userID := UserID(ctx); userID != "" {
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// RequestID returns the caller's request id or a new one. The id is remembered on ctx.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(HeaderRequestID).(string); ok {
		return id
	}
	id := string(ctx.Request.Header.Peek(HeaderRequestID))
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(HeaderRequestID, id)
	return id
}

// UserID returns the authenticated user set by the auth middleware.
func UserID(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Peek(HeaderUserID))
}

// SessionID returns the session set by the auth middleware.
func SessionID(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Peek(HeaderSessionID))
}
