package reactive

// Getter and Setter are the split accessor pair of a signal.
type Getter[T any] func() T
type Setter[T any] func(value T) error

func CreateSignal[T comparable](rs *ReactiveSystem, value T) (Getter[T], Setter[T]) {
	s := Signal(rs, value)
	return s.Value, s.SetValue
}

func CreateMemo[T comparable](rs *ReactiveSystem, fn func() T) Getter[T] {
	m := Computed(rs, func(oldValue T) T {
		return fn()
	})
	return m.Value
}

func CreateEffect(rs *ReactiveSystem, fn ErrFn) (*EffectRunner, error) {
	return Effect(rs, fn)
}
