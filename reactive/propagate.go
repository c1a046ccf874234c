package reactive

import (
	"errors"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

func (rs *ReactiveSystem) StartBatch() {
	rs.batchDepth++
}

// EndBatch closes the innermost batch. Closing the outermost one flushes every
// write made since StartBatch in a single propagation.
func (rs *ReactiveSystem) EndBatch() error {
	if rs.batchDepth == 0 {
		panic("reactive: EndBatch without StartBatch")
	}
	rs.batchDepth--
	if !rs.idle() {
		return nil
	}
	return rs.flush()
}

// Batch runs fn with propagation held back until it returns, so nodes that
// depend on several of the signals it writes run once.
func (rs *ReactiveSystem) Batch(fn func() error) error {
	rs.StartBatch()
	completed := false
	defer func() {
		if !completed {
			rs.batchDepth--
		}
	}()

	err := fn()
	completed = true
	if flushErr := rs.EndBatch(); flushErr != nil {
		if err != nil {
			return errors.Join(err, flushErr)
		}
		return flushErr
	}
	return err
}

// Flush propagates any writes still waiting, e.g. after a BatchError left
// writes queued.
func (rs *ReactiveSystem) Flush() error {
	if !rs.idle() {
		return nil
	}
	return rs.flush()
}

func (rs *ReactiveSystem) write(id NodeID, v any) error {
	n, ok := rs.store.get(id)
	if !ok {
		return staleNode(id)
	}
	if n.kind != KindSignal {
		return fmt.Errorf("%w: %s", ErrNotWritable, n)
	}
	if n.equals(n.value, v) {
		return nil
	}
	if !n.pending {
		n.pending = true
		n.batchValue = n.value
		rs.pending = append(rs.pending, n.id)
	}
	n.value = v

	if !rs.idle() {
		return nil
	}
	return rs.flush()
}

func (rs *ReactiveSystem) flush() error {
	if rs.flushing {
		return nil
	}
	rs.flushing = true
	defer func() {
		rs.flushing = false
		rs.sweepErr = nil
		rs.drainDeferred()
	}()

	for round := 0; len(rs.pending) > 0; round++ {
		if round >= rs.maxFlushRounds {
			rs.dropPending()
			return fmt.Errorf("%w after %d rounds", ErrFlushLimit, round)
		}

		rs.epoch++
		roots := rs.commitPending()
		if len(roots) == 0 {
			continue
		}
		marked := rs.mark(roots)
		ordered := rs.order(marked)
		rs.logger.Debug("flush round",
			"epoch", rs.epoch,
			"round", round,
			"changed", len(roots),
			"marked", len(ordered),
		)
		err := rs.sweep(ordered)
		rs.disposeDeferred()
		if err != nil {
			return err
		}
	}
	return nil
}

// commitPending turns queued writes into the roots of this round. A signal
// that ends the batch equal to where it started is not a root.
func (rs *ReactiveSystem) commitPending() []*node {
	roots := make([]*node, 0, len(rs.pending))
	for _, id := range rs.pending {
		n, ok := rs.store.get(id)
		if !ok || !n.pending {
			continue
		}
		changed := !n.equals(n.batchValue, n.value)
		n.pending = false
		n.batchValue = nil
		if changed {
			n.changedAt = rs.epoch
			roots = append(roots, n)
		}
	}
	rs.pending = rs.pending[:0]
	return roots
}

func (rs *ReactiveSystem) dropPending() {
	for _, id := range rs.pending {
		if n, ok := rs.store.get(id); ok {
			n.pending = false
			n.batchValue = nil
		}
	}
	rs.pending = rs.pending[:0]
}

// mark walks subscribers breadth first from the changed signals and flags
// every clean node it reaches as possibly dirty.
func (rs *ReactiveSystem) mark(roots []*node) []*node {
	seen := mapset.NewThreadUnsafeSet[NodeID]()
	marked := make([]*node, 0, len(roots))
	queue := slices.Clone(roots)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		n.subs.Each(func(id NodeID) bool {
			if !seen.Add(id) {
				return false
			}
			sub, ok := rs.store.get(id)
			if !ok || sub.disposing {
				return false
			}
			if sub.state == stateClean {
				sub.state = stateCheck
			}
			marked = append(marked, sub)
			queue = append(queue, sub)
			return false
		})
	}
	return marked
}

// order sorts the marked subgraph topologically. Each node is placed at the
// length of the longest path leading to it from the changed signals, ties
// go to whichever node was created first. An effect created by another marked
// node's run is placed after it, since that run may dispose it. Nodes left
// over once no more can be placed are on a cycle.
func (rs *ReactiveSystem) order(marked []*node) []*node {
	inDegree := make(map[NodeID]int, len(marked))
	level := make(map[NodeID]int, len(marked))
	for _, n := range marked {
		inDegree[n.id] = 0
	}
	children := make(map[NodeID][]*node)
	for _, n := range marked {
		n.sources.Each(func(id NodeID) bool {
			if _, ok := inDegree[id]; ok {
				inDegree[n.id]++
			}
			return false
		})
		if n.kind != KindEffect {
			continue
		}
		if p := n.owner.ownerNode(); p != 0 {
			if _, ok := inDegree[p]; ok {
				inDegree[n.id]++
				children[p] = append(children[p], n)
			}
		}
	}

	byID := make(map[NodeID]*node, len(marked))
	queue := make([]*node, 0, len(marked))
	for _, n := range marked {
		byID[n.id] = n
		if inDegree[n.id] == 0 {
			queue = append(queue, n)
		}
	}

	ordered := make([]*node, 0, len(marked))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered = append(ordered, n)
		relax := func(next *node) {
			level[next.id] = max(level[next.id], level[n.id]+1)
			inDegree[next.id]--
			if inDegree[next.id] == 0 {
				queue = append(queue, next)
			}
		}
		n.subs.Each(func(id NodeID) bool {
			if sub, ok := byID[id]; ok {
				relax(sub)
			}
			return false
		})
		for _, child := range children[n.id] {
			relax(child)
		}
	}

	if len(ordered) != len(marked) {
		cycle := make([]NodeID, 0, len(marked)-len(ordered))
		for _, n := range marked {
			if inDegree[n.id] > 0 {
				cycle = append(cycle, n.id)
			}
		}
		panic(&CycleError{Path: sortedIDs(cycle)})
	}

	slices.SortStableFunc(ordered, func(a, b *node) int {
		if d := level[a.id] - level[b.id]; d != 0 {
			return d
		}
		return compareSeq(a, b)
	})
	return ordered
}

func (rs *ReactiveSystem) sweep(ordered []*node) error {
	for i, n := range ordered {
		if !rs.store.alive(n) || n.disposing {
			continue
		}
		err := rs.settle(n)
		if err == nil && rs.sweepErr != nil {
			err = rs.sweepErr
		}
		if err != nil {
			for _, rest := range ordered[i:] {
				if rest.state == stateCheck {
					rest.state = stateDirty
				}
			}
			var batchErr *BatchError
			if errors.As(err, &batchErr) {
				return batchErr
			}
			return &BatchError{Node: n.id, Err: err}
		}
	}
	return nil
}

// settle brings a marked node up to date during a sweep. Effects run when a
// source really changed, pulling memo sources current first. Memos are not
// recomputed here, they only learn whether they went stale and recompute
// when something reads them.
func (rs *ReactiveSystem) settle(n *node) error {
	if n.kind == KindMemo {
		if n.state == stateCheck {
			n.state = rs.classify(n)
			if n.state == stateClean {
				n.verifiedAt = rs.epoch
			}
		}
		return nil
	}

	if n.state == stateCheck {
		changed, err := rs.sourcesChanged(n)
		if err != nil {
			n.state = stateDirty
			return err
		}
		if !changed {
			n.state = stateClean
			n.verifiedAt = rs.epoch
			return nil
		}
		n.state = stateDirty
	}
	if n.state == stateClean {
		return nil
	}
	return rs.runEffect(n)
}

// classify decides what it can about a possibly dirty memo without running
// anything. Sources come earlier in the sweep order, so they are already
// settled. A source that changed makes the memo dirty, a memo source that is
// itself unresolved leaves it in check until something pulls it.
func (rs *ReactiveSystem) classify(n *node) nodeState {
	state := stateClean
	n.sources.Each(func(id NodeID) bool {
		src, ok := rs.store.get(id)
		if !ok {
			return false
		}
		if src.state == stateClean {
			if src.changedAt > n.verifiedAt {
				state = stateDirty
				return true
			}
			return false
		}
		state = stateCheck
		return false
	})
	return state
}

// resolve makes a memo current regardless of who subscribes to it.
func (rs *ReactiveSystem) resolve(n *node) error {
	if n.running {
		panic(rs.cycleError(n))
	}
	if !n.initialized {
		return rs.updateComputed(n)
	}
	if n.state == stateCheck {
		changed, err := rs.sourcesChanged(n)
		if err != nil {
			n.state = stateDirty
			return err
		}
		if !changed {
			n.state = stateClean
			n.verifiedAt = rs.epoch
			return nil
		}
		n.state = stateDirty
	}
	if n.state == stateDirty {
		return rs.updateComputed(n)
	}
	return nil
}

// sourcesChanged reports whether any current source of n changed value since
// n was last known current, settling memo sources that are still unresolved
// first.
func (rs *ReactiveSystem) sourcesChanged(n *node) (bool, error) {
	for _, id := range n.sources.ToSlice() {
		src, ok := rs.store.get(id)
		if !ok {
			continue
		}
		if src.kind == KindMemo {
			if err := rs.resolve(src); err != nil {
				return false, err
			}
		}
		if src.changedAt > n.verifiedAt {
			return true, nil
		}
	}
	return false, nil
}

func (rs *ReactiveSystem) updateComputed(n *node) error {
	var next any
	err := rs.withTracking(n, func() error {
		v, err := n.compute(n.value)
		if err != nil {
			return err
		}
		next = v
		return nil
	})
	if err != nil {
		n.state = stateDirty
		return fmt.Errorf("computing %s: %w", n, err)
	}

	first := !n.initialized
	n.initialized = true
	n.state = stateClean
	n.verifiedAt = rs.epoch
	if first || !n.equals(n.value, next) {
		n.value = next
		n.changedAt = rs.epoch
	}
	return nil
}

func (rs *ReactiveSystem) runEffect(n *node) error {
	err := rs.withTracking(n, n.run)
	n.initialized = true
	if err != nil {
		n.state = stateDirty
		return fmt.Errorf("running %s: %w", n, err)
	}
	n.state = stateClean
	n.verifiedAt = rs.epoch
	return nil
}
