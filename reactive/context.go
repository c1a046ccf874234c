package reactive

import "github.com/cespare/xxhash/v2"

// Context is a typed key for values provided to a scope and everything
// created beneath it. Contexts are identified by name, two contexts created
// with the same name share values.
type Context[T any] struct {
	key          uint64
	name         string
	defaultValue T
}

func CreateContext[T any](name string, defaultValue T) *Context[T] {
	return &Context[T]{
		key:          xxhash.Sum64String(name),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *Context[T]) Name() string {
	return c.name
}

// Provide stores value on the current scope.
func Provide[T any](rs *ReactiveSystem, c *Context[T], value T) {
	s := rs.owner
	if s.values == nil {
		s.values = map[uint64]any{}
	}
	s.values[c.key] = value
}

// Use returns the value provided by the nearest scope, or the context's
// default when none provided one.
func Use[T any](rs *ReactiveSystem, c *Context[T]) T {
	for s := rs.owner; s != nil; s = s.parent {
		if v, ok := s.values[c.key]; ok {
			return as[T](v)
		}
	}
	return c.defaultValue
}
