// Package sender runs outbound Telegram API calls on a small worker pool so
// handlers never block on the network.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	ErrQueueFull   = errors.New("telegram sender: queue full")

	botToken = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tunes the dispatcher. Zero values pick the defaults noted per field.
type Options struct {
	QueueSize    int           // 256
	Workers      int           // 4
	MaxRetries   int           // 0, negative is clamped
	RetryBackoff time.Duration // 2s, multiplied by the attempt number
	MaxDuration  time.Duration // 12s per job including retries
	// PerSecond caps API calls across all workers. Zero leaves calls
	// unthrottled.
	PerSecond float64
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("op", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

// Dispatcher executes queued calls with bounded retries.
type Dispatcher struct {
	opts    Options
	limiter *rate.Limiter
	queue   chan job
	workers sync.WaitGroup
	failed  atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker pool.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queue: make(chan job, opts.QueueSize)}
	if opts.PerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.PerSecond), 1)
	}
	for range opts.Workers {
		d.workers.Add(1)
		go func() {
			defer d.workers.Done()
			for j := range d.queue {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run without waiting. run may be called more than once
// when it fails with a transient error.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending is the number of jobs waiting for a worker.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// ErrorCount is the number of jobs that ultimately failed.
func (d *Dispatcher) ErrorCount() uint64 { return d.failed.Load() }

// Close rejects new jobs, lets the workers finish the backlog and waits.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempt, err := d.attempt(ctx, j)
	attrs := append(j.attrs(),
		slog.Int("attempts", attempt),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	if err == nil {
		if attempt > 1 {
			logger.Info(j.ctx, component, "send.retry.success", attrs...)
		} else {
			logger.Debug(j.ctx, component, "send.success", attrs...)
		}
		return
	}
	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(attrs,
		slog.String("err", redact(err)),
		slog.String("err_code", classifyError(err)),
	)...)
}

// attempt runs j until it succeeds, fails permanently, runs out of retries
// or ctx expires. It returns the number of calls made.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	var err error
	for n := 1; ; n++ {
		if d.limiter != nil {
			if werr := d.limiter.Wait(ctx); werr != nil {
				return n - 1, errors.Join(err, werr)
			}
		}
		if err = j.run(); err == nil {
			return n, nil
		}
		if n > d.opts.MaxRetries || !netutil.ShouldRetry(err) {
			return n, err
		}
		delay := d.opts.RetryBackoff * time.Duration(n)
		logger.Debug(j.ctx, component, "send.retry.backoff", append(j.attrs(),
			slog.Int("attempts", n),
			slog.Int64("backoff_ms", delay.Milliseconds()),
		)...)
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// redact strips bot tokens that Telegram client errors embed in URLs.
func redact(err error) string {
	return botToken.ReplaceAllString(err.Error(), "bot<redacted>")
}

// classifyError buckets send failures for dashboards.
func classifyError(err error) string {
	var (
		dnsErr *net.DNSError
		netErr net.Error
		opErr  *net.OpError
		alert  tls.AlertError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &alert):
		return "tls"
	}
	switch code := statusOf(err); {
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// statusOf extracts the HTTP status from a telebot error, or from the
// trailing "(code)" telebot appends to plain error strings.
func statusOf(err error) int {
	var apiErr *tele.Error
	var flood tele.FloodError
	var group tele.GroupError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &flood):
		return http.StatusTooManyRequests
	case errors.As(err, &group):
		return http.StatusBadRequest
	}
	msg := strings.TrimSpace(err.Error())
	if !strings.HasSuffix(msg, ")") {
		return 0
	}
	open := strings.LastIndexByte(msg, '(')
	if open < 0 {
		return 0
	}
	code, convErr := strconv.Atoi(msg[open+1 : len(msg)-1])
	if convErr != nil {
		return 0
	}
	return code
}
