package reactive

type WriteableSignal[T any] struct {
	rs *ReactiveSystem
	id NodeID
}

func Signal[T comparable](rs *ReactiveSystem, initialValue T) *WriteableSignal[T] {
	return SignalWithEquals(rs, initialValue, equal[T])
}

// SignalWithEquals creates a signal for values that are not comparable, or
// that need a looser notion of "unchanged" than ==.
func SignalWithEquals[T any](rs *ReactiveSystem, initialValue T, equals func(a, b T) bool) *WriteableSignal[T] {
	n := rs.newNode(KindSignal)
	n.value = initialValue
	n.equals = eraseEquals(equals)
	n.initialized = true
	return &WriteableSignal[T]{rs: rs, id: n.id}
}

func (s *WriteableSignal[T]) ID() NodeID {
	return s.id
}

// Named labels the signal in snapshots and errors.
func (s *WriteableSignal[T]) Named(name string) *WriteableSignal[T] {
	s.rs.setName(s.id, name)
	return s
}

// Value returns the current value and, when called from a running memo or
// effect, subscribes it. A disposed signal reads as the zero value.
func (s *WriteableSignal[T]) Value() T {
	v, _ := s.TryValue()
	return v
}

func (s *WriteableSignal[T]) TryValue() (T, error) {
	v, err := s.rs.read(s.id)
	return as[T](v), err
}

// Peek returns the current value without subscribing.
func (s *WriteableSignal[T]) Peek() T {
	return Untrack(s.rs, s.Value)
}

// SetValue stores v and, outside of a batch, propagates it before returning.
// Errors returned come from memos or effects that failed while propagating.
func (s *WriteableSignal[T]) SetValue(v T) error {
	return s.rs.write(s.id, v)
}

// Update applies fn to the current value without subscribing to it.
func (s *WriteableSignal[T]) Update(fn func(oldValue T) T) error {
	return s.SetValue(fn(s.Peek()))
}

func (s *WriteableSignal[T]) Dispose() {
	s.rs.Dispose(s.id)
}
