package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

const queueDepth = 1024

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter hands encoded lines to a single goroutine that writes them in
// order to every sink. Output is buffered and flushed whenever the queue
// drains.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}
	out     *bufio.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(sinks []io.Writer, bufSize int) *asyncWriter {
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	w := &asyncWriter{
		lines:   make(chan []byte, queueDepth),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		out:     bufio.NewWriterSize(io.MultiWriter(live...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.record(w.out.Flush())
				return
			}
			w.emit(line)
			if len(w.lines) == 0 {
				w.record(w.out.Flush())
			}
		case ack := <-w.flushes:
			w.drain()
			ack <- w.out.Flush()
		}
	}
}

func (w *asyncWriter) emit(line []byte) {
	_, err := w.out.Write(line)
	w.record(err)
}

// drain writes whatever is queued without blocking.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.emit(line)
		default:
			return
		}
	}
}

// Write queues a copy of line. It reports the first sink error seen so far.
func (w *asyncWriter) Write(line []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), line...)
	return w.firstErr()
}

// Flush blocks until everything queued before the call has been written.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close stops accepting lines, writes the backlog and waits for the writer
// goroutine to exit.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
