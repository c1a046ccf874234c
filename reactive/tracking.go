package reactive

// withTracking runs body with n as the current consumer. Edges from the
// previous run are dropped first, nodes created by that run are disposed and
// its cleanups fire. The stack is restored on every exit path.
func (rs *ReactiveSystem) withTracking(n *node, body func() error) error {
	rs.clearSources(n)
	if n.owned != nil {
		n.owned.reset()
	}

	prevOwner := rs.owner
	if n.owned != nil {
		rs.owner = n.owned
	}
	rs.stack = append(rs.stack, n.id)
	rs.active++
	n.running = true

	defer func() {
		n.running = false
		rs.active--
		rs.stack = rs.stack[:len(rs.stack)-1]
		rs.owner = prevOwner
		rs.drainDeferred()
	}()

	return body()
}

func (rs *ReactiveSystem) activeConsumer() (*node, bool) {
	if len(rs.stack) == 0 {
		return nil, false
	}
	id := rs.stack[len(rs.stack)-1]
	if id == 0 {
		return nil, false
	}
	return rs.store.get(id)
}

// Untrack runs fn without recording any of its reads as dependencies of the
// node currently running.
func (rs *ReactiveSystem) Untrack(fn func()) {
	rs.stack = append(rs.stack, 0)
	defer func() {
		rs.stack = rs.stack[:len(rs.stack)-1]
	}()
	fn()
}

// Untrack returns fn's result without tracking the reads it makes.
func Untrack[T any](rs *ReactiveSystem, fn func() T) T {
	var t T
	rs.Untrack(func() {
		t = fn()
	})
	return t
}

func (rs *ReactiveSystem) read(id NodeID) (any, error) {
	n, ok := rs.store.get(id)
	if !ok {
		return nil, staleNode(id)
	}
	if n.running {
		panic(rs.cycleError(n))
	}
	consumer, tracked := rs.activeConsumer()
	if n.kind != KindMemo {
		if tracked {
			rs.recordEdge(n, consumer)
		}
		return n.value, nil
	}

	// resolve before linking, a cycle found while resolving must not leave
	// the closing edge behind
	err := rs.resolve(n)
	if tracked {
		rs.recordEdge(n, consumer)
	}
	if flushErr := rs.settlePending(); err == nil {
		err = flushErr
	}
	return n.value, err
}
