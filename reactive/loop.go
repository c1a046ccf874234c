package reactive

import (
	"context"
	"sync"
)

const DefaultLoopInbox = 256

type message struct {
	fn   func() error
	done chan error
}

type LoopOption func(*Loop)

// WithInbox sets how many posted messages may wait before Post blocks.
func WithInbox(size int) LoopOption {
	return func(l *Loop) {
		if size > 0 {
			l.inbox = make(chan message, size)
		}
	}
}

// Loop confines a ReactiveSystem to the goroutine calling Run. Other
// goroutines hand it work with Post or Do, each message runs as one batch.
type Loop struct {
	rs        *ReactiveSystem
	inbox     chan message
	closed    chan struct{}
	closeOnce sync.Once
}

func NewLoop(rs *ReactiveSystem, opts ...LoopOption) *Loop {
	l := &Loop{
		rs:     rs,
		inbox:  make(chan message, DefaultLoopInbox),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// System returns the confined ReactiveSystem. Only touch it from inside a
// posted function or before Run starts.
func (l *Loop) System() *ReactiveSystem {
	return l.rs
}

// Run processes messages until ctx is done or the loop is closed. Once it
// returns the loop is closed, later Post and Do calls fail with
// ErrLoopClosed.
func (l *Loop) Run(ctx context.Context) error {
	l.rs.logger.Debug("loop started")
	defer l.rs.logger.Debug("loop stopped")
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case m := <-l.inbox:
			err := l.rs.Batch(m.fn)
			if m.done != nil {
				m.done <- err
				continue
			}
			if err != nil {
				l.rs.reportError(0, err)
			}
		}
	}
}

// Post queues fn without waiting for it. Its error goes to the system's
// OnErrorFunc.
func (l *Loop) Post(ctx context.Context, fn func() error) error {
	return l.send(ctx, message{fn: fn})
}

// Do queues fn and waits for it and the flush that follows it.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := l.send(ctx, message{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrLoopClosed
	}
}

func (l *Loop) send(ctx context.Context, m message) error {
	select {
	case <-l.closed:
		return ErrLoopClosed
	default:
	}
	select {
	case <-l.closed:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	case l.inbox <- m:
		return nil
	}
}

// Close stops Run. Messages still queued are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

// PostValue writes v to s from any goroutine.
func PostValue[T any](ctx context.Context, l *Loop, s *WriteableSignal[T], v T) error {
	return l.Post(ctx, func() error {
		return s.SetValue(v)
	})
}
