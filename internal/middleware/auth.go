package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

// SessionChecker confirms that a token's session has not been revoked.
type SessionChecker interface {
	CurrentSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// JWTAuth validates the bearer token and forwards user and session ids as headers.
// A nil checker skips the revocation lookup.
func JWTAuth(secret string, sessions SessionChecker, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Never trust identity headers sent by the client.
			ctx.Request.Header.Del(httpcontext.HeaderUserID)
			ctx.Request.Header.Del(httpcontext.HeaderSessionID)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, domain.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			claims, _ := token.Claims.(jwt.MapClaims)
			userID, _ := claims["user_id"].(string)
			sessionID, _ := claims["session_id"].(string)
			if userID == "" {
				unauthorized(ctx, "invalid token")
				return
			}

			if sessions != nil {
				stdCtx, cancel := adapter.Attach(ctx)
				session, err := sessions.CurrentSession(stdCtx, sessionID)
				cancel()
				if err != nil || session.UserID != userID {
					logger.Info("revoked session", zap.String("session_id", sessionID), zap.Error(err))
					unauthorized(ctx, "session expired")
					return
				}
			}

			ctx.Request.Header.Set(httpcontext.HeaderUserID, userID)
			ctx.Request.Header.Set(httpcontext.HeaderSessionID, sessionID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	ctx.SetBodyString(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil).String())
}
