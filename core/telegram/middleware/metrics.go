package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersSlot = "qe.counters"

// counters tracks the replies produced for one update. Sends may complete on
// sender workers, so the fields are atomic.
type counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (n *counters) note(err error, opts []any) {
	if err != nil {
		return
	}
	n.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				n.keyboard.Store(true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				n.keyboard.Store(true)
			}
		}
	}
}

// counting decorates the reply methods of tele.Context.
type counting struct {
	tele.Context
	n *counters
}

func (c counting) Send(what any, opts ...any) error {
	err := c.Context.Send(what, opts...)
	c.n.note(err, opts)
	return err
}

func (c counting) Reply(what any, opts ...any) error {
	err := c.Context.Reply(what, opts...)
	c.n.note(err, opts)
	return err
}

func (c counting) Edit(what any, opts ...any) error {
	err := c.Context.Edit(what, opts...)
	c.n.note(err, opts)
	return err
}

func (c counting) EditOrSend(what any, opts ...any) error {
	err := c.Context.EditOrSend(what, opts...)
	c.n.note(err, opts)
	return err
}

func (c counting) EditOrReply(what any, opts ...any) error {
	err := c.Context.EditOrReply(what, opts...)
	c.n.note(err, opts)
	return err
}

// MessageMetricsMiddleware counts the messages each handler sends and whether
// any carried a keyboard.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &counters{}
		c.Set(countersSlot, n)
		return next(counting{Context: c, n: n})
	}
}

// Counters returns what MessageMetricsMiddleware recorded for c so far.
func Counters(c tele.Context) (messages int, keyboard bool) {
	n, ok := c.Get(countersSlot).(*counters)
	if !ok {
		return 0, false
	}
	return int(n.messages.Load()), n.keyboard.Load()
}
