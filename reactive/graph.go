package reactive

import (
	"slices"
)

// recordEdge links source to consumer in both directions. Reading a node that
// is still on the tracking stack would make it depend on itself.
func (rs *ReactiveSystem) recordEdge(source, consumer *node) {
	if source.running {
		panic(rs.cycleError(source))
	}
	if consumer.sources.Add(source.id) {
		source.subs.Add(consumer.id)
	}
}

// clearSources drops every edge into consumer. It runs before each
// recompute so that only what the new run reads stays tracked.
func (rs *ReactiveSystem) clearSources(consumer *node) {
	consumer.sources.Each(func(id NodeID) bool {
		if src, ok := rs.store.get(id); ok {
			src.subs.Remove(consumer.id)
		}
		return false
	})
	consumer.sources.Clear()
}

// detach removes n from the graph entirely.
func (rs *ReactiveSystem) detach(n *node) {
	rs.clearSources(n)
	n.subs.Each(func(id NodeID) bool {
		if sub, ok := rs.store.get(id); ok {
			sub.sources.Remove(n.id)
		}
		return false
	})
	n.subs.Clear()
}

// Subscribers lists the nodes that read id during their last run.
func (rs *ReactiveSystem) Subscribers(id NodeID) ([]NodeID, error) {
	n, ok := rs.store.get(id)
	if !ok {
		return nil, staleNode(id)
	}
	return sortedIDs(n.subs.ToSlice()), nil
}

// Sources lists the nodes id read during its last run.
func (rs *ReactiveSystem) Sources(id NodeID) ([]NodeID, error) {
	n, ok := rs.store.get(id)
	if !ok {
		return nil, staleNode(id)
	}
	return sortedIDs(n.sources.ToSlice()), nil
}

func sortedIDs(ids []NodeID) []NodeID {
	slices.Sort(ids)
	return ids
}

func (rs *ReactiveSystem) cycleError(n *node) *CycleError {
	path := make([]NodeID, 0, len(rs.stack)+1)
	start := slices.Index(rs.stack, n.id)
	if start < 0 {
		start = len(rs.stack)
	}
	for _, id := range rs.stack[start:] {
		if id != 0 {
			path = append(path, id)
		}
	}
	path = append(path, n.id)
	return &CycleError{Path: path}
}
