package reactive_test

import (
	"testing"

	"github.com/delaneyj/signalgraph/reactive"
	"github.com/stretchr/testify/assert"
)

func newSystem(t *testing.T, opts ...reactive.Option) *reactive.ReactiveSystem {
	t.Helper()
	return reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		assert.FailNow(t, err.Error(), "from %s", from)
	}, opts...)
}

// catchCycle runs fn and returns the *CycleError it panicked with, if any.
func catchCycle(fn func()) (cycle *reactive.CycleError) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if cycle, ok = r.(*reactive.CycleError); !ok {
				panic(r)
			}
		}
	}()
	fn()
	return nil
}
