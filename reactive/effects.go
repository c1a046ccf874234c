package reactive

type EffectRunner struct {
	rs *ReactiveSystem
	id NodeID
}

// Effect runs fn immediately to collect its dependencies and again whenever
// one of them changes. An error from the first run is returned alongside the
// runner, which stays registered and retries when next triggered.
func Effect(rs *ReactiveSystem, fn ErrFn) (*EffectRunner, error) {
	n := rs.newNode(KindEffect)
	n.run = fn
	n.state = stateDirty
	e := &EffectRunner{rs: rs, id: n.id}

	err := rs.Batch(func() error {
		return rs.runEffect(n)
	})
	return e, err
}

func (e *EffectRunner) ID() NodeID {
	return e.id
}

func (e *EffectRunner) Named(name string) *EffectRunner {
	e.rs.setName(e.id, name)
	return e
}

// Dispose stops the effect. An effect disposing itself from inside its own
// run is torn down once that run returns.
func (e *EffectRunner) Dispose() {
	e.rs.Dispose(e.id)
}

func (e *EffectRunner) Disposed() bool {
	_, ok := e.rs.store.get(e.id)
	return !ok
}
