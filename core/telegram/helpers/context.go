package helpers

import (
	"context"
	"strconv"

	"github.com/qemplois/assistant/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Platform names Telegram conversations in logs and session keys.
const Platform = "telegram"

const ctxSlot = "qe.ctx"

// Ids are the identifiers of the update being handled. Missing parts are 0.
type Ids struct {
	Update int
	Chat   int64
	User   int64
}

// IdsOf reads the update, chat and sender ids from c.
func IdsOf(c tele.Context) Ids {
	ids := Ids{Update: c.Update().ID}
	if chat := c.Chat(); chat != nil {
		ids.Chat = chat.ID
	}
	if user := c.Sender(); user != nil {
		ids.User = user.ID
	}
	return ids
}

// Context returns the logging context of the update, building it on first
// use and caching it on c.
func Context(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxSlot).(context.Context); ok {
		return ctx
	}
	ids := IdsOf(c)
	ctx := logger.WithRID(logger.Background(), logger.BuildRID(ids.Update, ids.Chat, ids.User))
	ctx = logger.WithUpdateMeta(ctx, ids.Update, ids.User, ids.Chat)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	if ids.User != 0 {
		ctx = logger.WithConversation(ctx, Platform, strconv.FormatInt(ids.User, 10))
	}
	c.Set(ctxSlot, ctx)
	return ctx
}

// TagHandler records the handler name on the cached context.
func TagHandler(c tele.Context, name string) context.Context {
	ctx := logger.WithHandler(Context(c), name)
	c.Set(ctxSlot, ctx)
	return ctx
}
