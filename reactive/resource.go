package reactive

import (
	"context"
)

type ResourceState[T any] struct {
	Value   T
	Err     error
	Loading bool
	Version uint64 // counts fetches, identifies the fetch behind this state
}

// Resource runs fetch on its own goroutine whenever source changes and
// writes the outcome back through a Loop. Results from fetches that were
// superseded before they finished are dropped.
type Resource[S comparable, T any] struct {
	loop    *Loop
	ctx     context.Context
	fetch   func(context.Context, S) (T, error)
	state   *WriteableSignal[ResourceState[T]]
	effect  *EffectRunner
	cancel  context.CancelFunc
	version uint64
	last    S
}

// NewResource must be called on the loop's goroutine, from a posted function
// or before Run starts.
func NewResource[S comparable, T any](
	ctx context.Context,
	l *Loop,
	source func() S,
	fetch func(context.Context, S) (T, error),
) (*Resource[S, T], error) {
	r := &Resource[S, T]{
		loop:  l,
		ctx:   ctx,
		fetch: fetch,
	}
	r.state = SignalWithEquals(l.rs, ResourceState[T]{Loading: true}, sameFetch[T])

	e, err := Effect(l.rs, func() error {
		s := source()
		return Untrack(l.rs, func() error {
			return r.start(s)
		})
	})
	r.effect = e
	return r, err
}

func sameFetch[T any](a, b ResourceState[T]) bool {
	return a.Version == b.Version && a.Loading == b.Loading
}

func (r *Resource[S, T]) start(s S) error {
	if r.cancel != nil {
		r.cancel()
	}
	r.version++
	version := r.version
	r.last = s

	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel

	go func() {
		v, err := r.fetch(ctx, s)
		if ctx.Err() != nil {
			return
		}
		// Post only fails once the loop has stopped or this fetch was
		// superseded, either way nobody wants the result
		_ = r.loop.Post(ctx, func() error {
			if version != r.version {
				return nil
			}
			return r.state.SetValue(ResourceState[T]{
				Value:   v,
				Err:     err,
				Version: version,
			})
		})
	}()

	prev := r.state.Peek()
	return r.state.SetValue(ResourceState[T]{
		Value:   prev.Value,
		Loading: true,
		Version: version,
	})
}

// State returns the latest state and subscribes the running node to it.
func (r *Resource[S, T]) State() ResourceState[T] {
	return r.state.Value()
}

func (r *Resource[S, T]) Loading() bool {
	return r.State().Loading
}

// Refetch reruns fetch for the last source value. Call it on the loop. The
// error comes from whatever the loading state write set off.
func (r *Resource[S, T]) Refetch() error {
	return r.start(r.last)
}

func (r *Resource[S, T]) Dispose() {
	if r.cancel != nil {
		r.cancel()
	}
	r.effect.Dispose()
	r.state.Dispose()
}
