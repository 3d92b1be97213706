package whatsapp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/auth"
	"github.com/qemplois/assistant/booking/bot"
	"github.com/qemplois/assistant/core/logger"
)

type inbound struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type outbound struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) webhook(c *gin.Context) {
	var msg inbound
	if err := c.ShouldBindJSON(&msg); err != nil || strings.TrimSpace(msg.From) == "" || strings.TrimSpace(msg.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message format"})
		return
	}
	ctx := requestCtx(c)
	from := strings.TrimSpace(msg.From)

	if !s.opts.Limiter.Allow(from) {
		logger.Warn(ctx, component, "wa.rate_limit", slog.String("status", "rate_limited"))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
		return
	}

	key := booking.Key{Platform: booking.PlatformWhatsApp, UserID: from}
	reply, err := s.bot.HandleText(ctx, key, msg.Body)
	if err != nil {
		// the reply already carries a user-facing apology
		logger.Error(ctx, component, "wa.turn",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	c.JSON(http.StatusOK, outbound{Text: reply.Text, Choices: reply.Choices})
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) linkPlatform(c *gin.Context) {
	var req auth.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, result{Message: "Invalid request body"})
		return
	}
	ctx := requestCtx(c)
	err := s.bot.Gate().Link(ctx, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result{Success: true, Message: "Successfully linked " + req.Platform + " account"})
	case auth.IsInvalid(err):
		c.JSON(http.StatusBadRequest, result{Message: err.Error()})
	default:
		logger.Error(ctx, component, "auth.link",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, result{Message: "Failed to link platform account"})
	}
}

type identity struct {
	Platform       string `json:"platform" binding:"required"`
	PlatformUserID string `json:"platformUserId" binding:"required"`
}

func (i identity) key() booking.Key {
	return booking.Key{Platform: booking.Platform(i.Platform), UserID: i.PlatformUserID}
}

func (s *Server) unlinkPlatform(c *gin.Context) {
	var id identity
	if err := c.ShouldBindJSON(&id); err != nil {
		c.JSON(http.StatusBadRequest, result{Message: "Invalid request body"})
		return
	}
	removed, err := s.bot.Gate().Unlink(requestCtx(c), id.key())
	if err != nil {
		c.JSON(http.StatusInternalServerError, result{Message: "Failed to unlink platform account"})
		return
	}
	if !removed {
		c.JSON(http.StatusOK, result{Message: "Platform not linked"})
		return
	}
	c.JSON(http.StatusOK, result{Success: true, Message: "Successfully unlinked " + id.Platform + " account"})
}

func (s *Server) verifyLink(c *gin.Context) {
	var id identity
	if err := c.ShouldBindJSON(&id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	acc, linked, err := s.bot.Gate().Linked(requestCtx(c), id.key())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !linked {
		c.JSON(http.StatusOK, gin.H{"linked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": true, "userId": acc.UserID})
}

func (s *Server) events(c *gin.Context) {
	var ev bot.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event"})
		return
	}
	c.JSON(http.StatusOK, s.bot.HandleEvent(requestCtx(c), ev))
}
