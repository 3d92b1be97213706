package whatsapp

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qemplois/assistant/core/logger"
)

const ctxKey = "wa.ctx"

func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header("X-Request-ID", rid)
		ctx := logger.WithRID(c.Request.Context(), rid)
		ctx = logger.WithLogger(ctx, logger.Component(component))
		c.Set(ctxKey, ctx)
		c.Next()
	}
}

func requestCtx(c *gin.Context) context.Context {
	if v, ok := c.Get(ctxKey); ok {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := "ok"
		if c.Writer.Status() >= http.StatusBadRequest {
			status = "fail"
		}
		if c.Writer.Status() == http.StatusTooManyRequests {
			status = "rate_limited"
		}
		logger.Debug(requestCtx(c), component, "http.request",
			slog.String("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("http_code", c.Writer.Status()),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
		)
	}
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(requestCtx(c), component, "http.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

// bearer rejects requests without the configured API token.
func (s *Server) bearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.APIToken == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.APIToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing authorization"})
			return
		}
		c.Next()
	}
}
