// Package stream consumes the solve log stream for one task.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"astroctl/internal/service"
)

const (
	// Sentinel is the payload that marks a successful end of the solve.
	Sentinel = "DONE"

	// DiagnosticLine is appended when the stream fails.
	DiagnosticLine = "[Connection closed or error]"
)

// ErrClosed is returned by Run when Close ended the stream.
var ErrClosed = errors.New("solve stream closed")

// ErrStarted is returned when Run is called on a used Consumer.
var ErrStarted = errors.New("solve stream already started")

// State is the consumer lifecycle.
type State int

const (
	Idle State = iota
	Open
	Done
	Failed
	// Closed means the caller ended an open stream. No diagnostic is
	// appended and the completion hook is not called.
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further lines can arrive.
func (s State) Terminal() bool {
	return s == Done || s == Failed || s == Closed
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithLineHandler calls fn for every line as it is appended, including the
// sentinel and the diagnostic line.
func WithLineHandler(fn func(string)) Option {
	return func(c *Consumer) { c.onLine = fn }
}

// WithCompletion calls fn once after the sentinel arrives and the
// connection is closed.
func WithCompletion(fn func(context.Context)) Option {
	return func(c *Consumer) { c.onDone = fn }
}

// Consumer reads one solve stream. A Consumer is single use.
type Consumer struct {
	svc    service.Service
	logger *slog.Logger
	onLine func(string)
	onDone func(context.Context)

	mu     sync.Mutex
	state  State
	lines  []string
	reader service.LineReader
}

// NewConsumer creates an idle consumer.
func NewConsumer(svc service.Service, logger *slog.Logger, opts ...Option) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run opens the stream and reads it until the sentinel, a transport
// failure, Close, or ctx cancellation. Lines after the sentinel are never
// read. The stream is never reopened.
func (c *Consumer) Run(ctx context.Context, taskID string, params service.SolveParams) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrStarted
	}
	c.state = Open
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	c.logger.Debug("Opening solve stream", "task_id", taskID)
	r, err := c.svc.OpenSolveStream(ctx, taskID, params)
	if err != nil {
		if closed := c.fail(); closed {
			return c.closedErr(ctx)
		}
		return fmt.Errorf("open solve stream: %w", err)
	}

	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		r.Close()
		return c.closedErr(ctx)
	}
	c.reader = r
	c.mu.Unlock()

	for {
		line, err := r.Next()
		if err != nil {
			if closed := c.fail(); closed {
				return c.closedErr(ctx)
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			c.logger.Debug("Solve stream failed", "task_id", taskID, "error", err)
			var terr *service.TransportError
			if errors.As(err, &terr) {
				return err
			}
			return &service.TransportError{Op: "read solve stream", Err: err}
		}

		c.mu.Lock()
		if c.state != Open {
			c.mu.Unlock()
			return c.closedErr(ctx)
		}
		c.lines = append(c.lines, line)
		done := line == Sentinel
		if done {
			c.state = Done
			c.reader.Close()
		}
		c.mu.Unlock()

		if c.onLine != nil {
			c.onLine(line)
		}
		if done {
			c.logger.Debug("Solve stream complete", "task_id", taskID)
			if c.onDone != nil {
				c.onDone(ctx)
			}
			return nil
		}
	}
}

// fail moves an open stream to Failed and appends the diagnostic.
// It reports true when the stream had already been closed by the caller.
func (c *Consumer) fail() bool {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return true
	}
	c.state = Failed
	c.lines = append(c.lines, DiagnosticLine)
	if c.reader != nil {
		c.reader.Close()
	}
	c.mu.Unlock()

	if c.onLine != nil {
		c.onLine(DiagnosticLine)
	}
	return false
}

func (c *Consumer) closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// Close ends an open stream. It is idempotent and does nothing in any
// other state. Safe to call from any goroutine.
func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Open {
		return
	}
	c.state = Closed
	if c.reader != nil {
		c.reader.Close()
	}
}

// State returns the current state.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Lines returns a copy of the lines received so far.
func (c *Consumer) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}
