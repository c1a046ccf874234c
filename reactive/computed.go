package reactive

import "errors"

type ReadonlySignal[T any] struct {
	rs *ReactiveSystem
	id NodeID
}

// Computed creates a memo. It does not run until first read, afterwards it
// recomputes only when something it read last time changed, and its
// subscribers only hear about it when the new value differs from the old.
func Computed[T comparable](rs *ReactiveSystem, getter func(oldValue T) T) *ReadonlySignal[T] {
	return ComputedWithEquals(rs, getter, equal[T])
}

func ComputedWithEquals[T any](rs *ReactiveSystem, getter func(oldValue T) T, equals func(a, b T) bool) *ReadonlySignal[T] {
	return newComputed(rs, func(oldValue T) (T, error) {
		return getter(oldValue), nil
	}, equals)
}

// ComputedErr creates a memo whose getter can fail. A failing getter keeps the
// previous value and leaves the memo dirty so the next read tries again.
func ComputedErr[T comparable](rs *ReactiveSystem, getter func(oldValue T) (T, error)) *ReadonlySignal[T] {
	return newComputed(rs, getter, equal[T])
}

func newComputed[T any](rs *ReactiveSystem, getter func(oldValue T) (T, error), equals func(a, b T) bool) *ReadonlySignal[T] {
	n := rs.newNode(KindMemo)
	var zero T
	n.value = zero
	n.equals = eraseEquals(equals)
	n.state = stateDirty
	n.compute = func(oldValue any) (any, error) {
		return getter(as[T](oldValue))
	}
	return &ReadonlySignal[T]{rs: rs, id: n.id}
}

func (c *ReadonlySignal[T]) ID() NodeID {
	return c.id
}

func (c *ReadonlySignal[T]) Named(name string) *ReadonlySignal[T] {
	c.rs.setName(c.id, name)
	return c
}

// Value returns the memo's value, computing it first if needed. Getter
// failures are reported to the system's OnErrorFunc, or fail the current
// flush, and the last good value is returned.
func (c *ReadonlySignal[T]) Value() T {
	v, err := c.TryValue()
	if err != nil && !errors.Is(err, ErrStaleNode) {
		c.rs.reportError(c.id, err)
	}
	return v
}

func (c *ReadonlySignal[T]) TryValue() (T, error) {
	v, err := c.rs.read(c.id)
	return as[T](v), err
}

func (c *ReadonlySignal[T]) Peek() T {
	return Untrack(c.rs, c.Value)
}

func (c *ReadonlySignal[T]) Dispose() {
	c.rs.Dispose(c.id)
}
