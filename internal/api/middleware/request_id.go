package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyActorID   contextKey = "actor_id"
	ctxKeyActorName contextKey = "actor_name"
	ctxKeyActorKind contextKey = "actor_kind"
)

// RequestID injects a unique request ID into the context and response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetActorContext stores the authenticated principal in context.
func SetActorContext(ctx context.Context, actorID, name, kind string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyActorID, actorID)
	ctx = context.WithValue(ctx, ctxKeyActorName, name)
	ctx = context.WithValue(ctx, ctxKeyActorKind, kind)
	return ctx
}

// GetActorID extracts the acting principal's id from context.
func GetActorID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActorID).(string); ok {
		return v
	}
	return ""
}

// GetActorKind extracts the principal kind (borrower or broker) from context.
func GetActorKind(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActorKind).(string); ok {
		return v
	}
	return ""
}
