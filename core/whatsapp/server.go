// Package whatsapp exposes the assistant over HTTP for the WhatsApp gateway
// and the Q-Emplois platform callbacks.
package whatsapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/auth"
	"github.com/qemplois/assistant/booking/bot"
	"github.com/qemplois/assistant/booking/flow"
	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/ratelimit"
)

const component = "wa"

const defaultShutdownTimeout = 10 * time.Second

// Bot is the conversation surface served over HTTP.
type Bot interface {
	HandleText(ctx context.Context, key booking.Key, text string) (flow.Reply, error)
	HandleEvent(ctx context.Context, ev bot.Event) bot.Notification
	Gate() auth.Gate
}

// Options configures the server.
type Options struct {
	Listen string
	// APIToken, when set, guards the platform callback routes.
	APIToken        string
	Limiter         *ratelimit.Keyed
	ShutdownTimeout time.Duration
}

// Server is the HTTP gateway.
type Server struct {
	bot    Bot
	opts   Options
	engine *gin.Engine
}

// New builds the router.
func New(b Bot, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestContext(), accessLog(), recovery())
	_ = r.SetTrustedProxies(nil)

	s := &Server{bot: b, opts: opts, engine: r}

	r.GET("/health", s.health)
	r.POST("/whatsapp/webhook", s.webhook)

	api := r.Group("/api/auth", s.bearer())
	api.POST("/link-platform", s.linkPlatform)
	api.POST("/unlink-platform", s.unlinkPlatform)
	api.POST("/verify-link", s.verifyLink)

	r.POST("/events", s.bearer(), s.events)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
	})
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, component, "http.listen", slog.String("addr", s.opts.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, component, "http.listen",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info(shutdownCtx, component, "http.shutdown", slog.String("status", "ok"))
	return nil
}
