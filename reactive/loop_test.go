package reactive_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/delaneyj/signalgraph/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopSystem reports errors with t.Error since Run lives on another goroutine.
func loopSystem(t *testing.T) *reactive.ReactiveSystem {
	t.Helper()
	return reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		t.Errorf("unexpected error from %s: %v", from, err)
	})
}

func runLoop(t *testing.T, l *reactive.Loop) (context.Context, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	return ctx, done
}

func TestLoopSerialisesWrites(t *testing.T) {
	rs := loopSystem(t)
	l := reactive.NewLoop(rs, reactive.WithInbox(4))
	assert.Same(t, rs, l.System())

	total := reactive.Signal(rs, 0)
	var sums []int
	_, err := reactive.Effect(rs, func() error {
		sums = append(sums, total.Value())
		return nil
	})
	require.NoError(t, err)

	ctx, done := runLoop(t, l)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Post(ctx, func() error {
				return total.Update(func(oldValue int) int {
					return oldValue + i
				})
			}))
		}(i)
	}
	wg.Wait()

	var got int
	require.NoError(t, l.Do(ctx, func() error {
		got = total.Value()
		return nil
	}))
	assert.Equal(t, 55, got)

	l.Close()
	require.NoError(t, <-done)
	require.Len(t, sums, 11)
	assert.Equal(t, 55, sums[10])

	assert.ErrorIs(t, l.Post(ctx, func() error { return nil }), reactive.ErrLoopClosed)
	assert.ErrorIs(t, l.Do(ctx, func() error { return nil }), reactive.ErrLoopClosed)
	l.Close()
}

func TestLoopPostValue(t *testing.T) {
	rs := loopSystem(t)
	l := reactive.NewLoop(rs)
	name := reactive.Signal(rs, "")

	ctx, done := runLoop(t, l)
	require.NoError(t, reactive.PostValue(ctx, l, name, "gopher"))

	var got string
	require.NoError(t, l.Do(ctx, func() error {
		got = name.Value()
		return nil
	}))
	assert.Equal(t, "gopher", got)

	l.Close()
	require.NoError(t, <-done)
}

func TestLoopDoReturnsErrors(t *testing.T) {
	boom := errors.New("boom")
	rs := loopSystem(t)
	l := reactive.NewLoop(rs)
	a := reactive.Signal(rs, 0)
	_, err := reactive.Effect(rs, func() error {
		if a.Value() > 0 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)

	ctx, done := runLoop(t, l)

	err = l.Do(ctx, func() error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = l.Do(ctx, func() error {
		return a.SetValue(1)
	})
	assert.ErrorIs(t, err, reactive.ErrPoisonedBatch)
	assert.ErrorIs(t, err, boom)

	l.Close()
	require.NoError(t, <-done)
}

func TestLoopPostErrorsGoToOnError(t *testing.T) {
	boom := errors.New("boom")
	reported := make(chan error, 1)
	rs := reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		reported <- err
	})
	l := reactive.NewLoop(rs)
	ctx, done := runLoop(t, l)

	require.NoError(t, l.Post(ctx, func() error {
		return boom
	}))
	assert.ErrorIs(t, <-reported, boom)

	l.Close()
	require.NoError(t, <-done)
}

func TestLoopStopsWithContext(t *testing.T) {
	rs := loopSystem(t)
	l := reactive.NewLoop(rs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoopClosedOnceRunReturns(t *testing.T) {
	rs := loopSystem(t)
	l := reactive.NewLoop(rs)
	a := reactive.Signal(rs, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// callers that kept their own context must not block on a dead loop
	err := l.Do(context.Background(), func() error {
		return a.SetValue(1)
	})
	assert.ErrorIs(t, err, reactive.ErrLoopClosed)
	assert.ErrorIs(t, reactive.PostValue(context.Background(), l, a, 2), reactive.ErrLoopClosed)
	assert.Equal(t, 0, a.Peek())
}
