package reactive_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/signalgraph/reactive"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should clear subscriptions when untracked by all subscribers
func TestEffectClearSubsWhenUntracked(t *testing.T) {
	rs := newSystem(t)

	bRunTimes := 0
	a := reactive.Signal(rs, 1)
	b := reactive.Computed(rs, func(oldValue int) int {
		bRunTimes++
		return a.Value() * 2
	})
	e, err := reactive.Effect(rs, func() error {
		b.Value()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, bRunTimes)
	require.NoError(t, a.SetValue(2))
	assert.Equal(t, 2, bRunTimes)
	e.Dispose()
	require.NoError(t, a.SetValue(3))
	assert.Equal(t, 2, bRunTimes)
}

func TestBatchCoalescesWrites(t *testing.T) {
	rs := newSystem(t)
	first := reactive.Signal(rs, "Ada")
	last := reactive.Signal(rs, "Lovelace")

	var names []string
	_, err := reactive.Effect(rs, func() error {
		names = append(names, first.Value()+" "+last.Value())
		return nil
	})
	require.NoError(t, err)

	rs.StartBatch()
	require.NoError(t, first.SetValue("Grace"))
	require.NoError(t, last.SetValue("Hopper"))
	assert.Len(t, names, 1)
	require.NoError(t, rs.EndBatch())

	want := []string{"Ada Lovelace", "Grace Hopper"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestEndBatchWithoutStartPanics(t *testing.T) {
	rs := newSystem(t)
	assert.Panics(t, func() {
		_ = rs.EndBatch()
	})
}

// should not run untracked inner effect
func TestShouldNotRunUntrackedInnerEffect(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 3)
	b := reactive.Computed(rs, func(oldValue bool) bool {
		return a.Value() > 0
	})

	_, err := reactive.Effect(rs, func() error {
		if b.Value() {
			_, err := reactive.Effect(rs, func() error {
				if a.Value() == 0 {
					assert.Fail(t, "inner effect ran after its parent stopped creating it")
				}
				return nil
			})
			return err
		}
		return nil
	})
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, a.Update(func(oldValue int) int {
			return oldValue - 1
		}))
	}
}

// should run outer effect first
func TestShouldRunOuterEffectFirst(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 1)
	b := reactive.Signal(rs, 1)

	_, err := reactive.Effect(rs, func() error {
		if a.Value() != 0 {
			_, err := reactive.Effect(rs, func() error {
				aV := a.Value()
				b.Value()
				if aV == 0 {
					assert.Fail(t, "inner effect ran before its parent")
				}
				return nil
			})
			return err
		}
		return nil
	})
	require.NoError(t, err)

	err = rs.Batch(func() error {
		if err := a.SetValue(0); err != nil {
			return err
		}
		return b.SetValue(0)
	})
	require.NoError(t, err)
}

// should not trigger inner effect when resolve maybe dirty
func TestShouldNotTriggerInnerEffectWhenResolveMaybeDirty(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)
	b := reactive.Computed(rs, func(oldValue bool) bool {
		return a.Value()%2 == 0
	})

	innerTriggerTimes := 0
	_, err := reactive.Effect(rs, func() error {
		_, err := reactive.Effect(rs, func() error {
			b.Value()
			innerTriggerTimes++
			return nil
		})
		return err
	})
	require.NoError(t, err)

	require.NoError(t, a.SetValue(2))
	assert.Equal(t, 1, innerTriggerTimes)
}

// should trigger inner effects in sequence
func TestShouldTriggerInnerEffectsInSequence(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)
	b := reactive.Signal(rs, 0)
	c := reactive.Computed(rs, func(oldValue int) int {
		return a.Value() - b.Value()
	})
	var order []string

	_, err := reactive.Effect(rs, func() error {
		c.Value()

		if _, err := reactive.Effect(rs, func() error {
			order = append(order, "first inner")
			a.Value()
			return nil
		}); err != nil {
			return err
		}

		_, err := reactive.Effect(rs, func() error {
			order = append(order, "last inner")
			a.Value()
			b.Value()
			return nil
		})
		return err
	})
	require.NoError(t, err)

	order = order[:0]
	err = rs.Batch(func() error {
		if err := b.SetValue(1); err != nil {
			return err
		}
		return a.SetValue(1)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"first inner", "last inner"}, order)
}

// should trigger inner effects in sequence in a scope
func TestShouldTriggerInnerEffectsInSequenceInScope(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)
	b := reactive.Signal(rs, 0)
	var order []string

	_, err := rs.NewScope(func(s *reactive.Scope) error {
		if _, err := reactive.Effect(rs, func() error {
			order = append(order, "first inner")
			a.Value()
			return nil
		}); err != nil {
			return err
		}

		_, err := reactive.Effect(rs, func() error {
			order = append(order, "last inner")
			a.Value()
			b.Value()
			return nil
		})
		return err
	})
	require.NoError(t, err)

	order = order[:0]
	err = rs.Batch(func() error {
		if err := b.SetValue(1); err != nil {
			return err
		}
		return a.SetValue(1)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"first inner", "last inner"}, order)
}

// should custom effect support batch
func TestShouldCustomEffectSupportBatch(t *testing.T) {
	rs := newSystem(t)

	batchEffect := func(fn func() error) {
		_, err := reactive.Effect(rs, func() error {
			return rs.Batch(fn)
		})
		require.NoError(t, err)
	}

	var logs []string
	a := reactive.Signal(rs, 0)
	b := reactive.Signal(rs, 0)

	aa := reactive.Computed(rs, func(oldValue int) int {
		logs = append(logs, "aa-0")
		if a.Value() == 0 {
			require.NoError(t, b.SetValue(1))
		}
		logs = append(logs, "aa-1")
		return 0
	})

	bb := reactive.Computed(rs, func(oldValue int) int {
		logs = append(logs, "bb")
		return b.Value()
	})

	batchEffect(func() error {
		bb.Value()
		return nil
	})

	batchEffect(func() error {
		aa.Value()
		return nil
	})

	assert.Equal(t, []string{"bb", "aa-0", "aa-1", "bb"}, logs)
}

func TestEffectDisposingItselfIsDeferred(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)

	var e *reactive.EffectRunner
	runs := 0
	e, err := reactive.Effect(rs, func() error {
		v := a.Value()
		runs++
		if v == 1 {
			e.Dispose()
			assert.False(t, e.Disposed(), "disposal must wait for the run to finish")
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, a.SetValue(1))
	assert.True(t, e.Disposed())
	assert.Equal(t, 2, runs)

	require.NoError(t, a.SetValue(2))
	assert.Equal(t, 2, runs)
}

func TestEffectDisposedDuringFlushSkipsLaterRounds(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)

	var e *reactive.EffectRunner
	runs := 0
	e, err := reactive.Effect(rs, func() error {
		v := a.Value()
		runs++
		if v > 0 {
			e.Dispose()
			// feeds another flush round that would otherwise rerun e
			return a.SetValue(v + 1)
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, a.SetValue(1))
	assert.True(t, e.Disposed())
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, a.Peek())

	subs, err := rs.Subscribers(a.ID())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestEffectCleanupRunsBeforeRerun(t *testing.T) {
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)

	var trace []string
	e, err := reactive.Effect(rs, func() error {
		a.Value()
		trace = append(trace, "run")
		reactive.OnCleanup(rs, func() {
			trace = append(trace, "cleanup")
		})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, a.SetValue(1))
	e.Dispose()

	want := []string{"run", "cleanup", "run", "cleanup"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestPoisonedBatch(t *testing.T) {
	boom := errors.New("boom")
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)

	var firstSaw []int
	_, err := reactive.Effect(rs, func() error {
		firstSaw = append(firstSaw, a.Value())
		return nil
	})
	require.NoError(t, err)

	failing, err := reactive.Effect(rs, func() error {
		if a.Value() == 1 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)

	lastRuns := 0
	_, err = reactive.Effect(rs, func() error {
		a.Value()
		lastRuns++
		return nil
	})
	require.NoError(t, err)

	err = a.SetValue(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, reactive.ErrPoisonedBatch)
	assert.ErrorIs(t, err, boom)

	var batchErr *reactive.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, failing.ID(), batchErr.Node)

	// nodes before the failure were updated, the ones after were not
	assert.Equal(t, []int{0, 1}, firstSaw)
	assert.Equal(t, 1, lastRuns)

	// the next write reaches everything again
	require.NoError(t, a.SetValue(2))
	assert.Equal(t, []int{0, 1, 2}, firstSaw)
	assert.Equal(t, 2, lastRuns)
}

func TestEffectFirstRunError(t *testing.T) {
	boom := errors.New("boom")
	rs := newSystem(t)
	a := reactive.Signal(rs, 0)

	runs := 0
	e, err := reactive.Effect(rs, func() error {
		runs++
		if a.Value() == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, e)
	assert.False(t, e.Disposed())

	require.NoError(t, a.SetValue(1))
	assert.Equal(t, 2, runs)
}

func TestFlushLimit(t *testing.T) {
	rs := newSystem(t, reactive.WithMaxFlushRounds(5))
	a := reactive.Signal(rs, 0)

	_, err := reactive.Effect(rs, func() error {
		v := a.Value()
		return a.SetValue(v + 1)
	})
	assert.ErrorIs(t, err, reactive.ErrFlushLimit)

	// the limit drops what was still queued, the system stays usable
	b := reactive.Signal(rs, "x")
	got := ""
	_, err = reactive.Effect(rs, func() error {
		got = b.Value()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, b.SetValue("y"))
	assert.Equal(t, "y", got)
}

func TestEffectWritesSettleInLaterRounds(t *testing.T) {
	rs := newSystem(t)
	celsius := reactive.Signal(rs, 0)
	fahrenheit := reactive.Signal(rs, 32)

	_, err := reactive.Effect(rs, func() error {
		return fahrenheit.SetValue(celsius.Value()*9/5 + 32)
	})
	require.NoError(t, err)

	var seen []int
	_, err = reactive.Effect(rs, func() error {
		seen = append(seen, fahrenheit.Value())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, celsius.SetValue(100))
	assert.Equal(t, 212, fahrenheit.Value())
	assert.Equal(t, []int{32, 212}, seen)
}
