package reactive

import (
	"slices"
)

const DefaultStoreCapacity = 4096

type slot struct {
	generation uint32
	node       *node
}

// store is the arena that owns every node of a ReactiveSystem. Nodes are only
// ever referenced by NodeID outside of it.
type store struct {
	slots []slot
	free  []uint32
	live  int
	seq   uint64
}

func newStore(capacity int) *store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &store{
		slots: make([]slot, 0, capacity),
	}
}

func (s *store) insert(n *node) NodeID {
	var idx uint32
	if l := len(s.free); l > 0 {
		idx = s.free[l-1]
		s.free = s.free[:l-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}

	sl := &s.slots[idx]
	sl.generation++
	if sl.generation == 0 {
		sl.generation = 1
	}
	sl.node = n

	s.seq++
	n.id = makeNodeID(idx, sl.generation)
	n.seq = s.seq
	s.live++
	return n.id
}

func (s *store) get(id NodeID) (*node, bool) {
	idx := id.index()
	if id == 0 || int(idx) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[idx]
	if sl.node == nil || sl.generation != id.generation() {
		return nil, false
	}
	return sl.node, true
}

func (s *store) alive(n *node) bool {
	got, ok := s.get(n.id)
	return ok && got == n
}

func (s *store) remove(id NodeID) bool {
	if _, ok := s.get(id); !ok {
		return false
	}
	idx := id.index()
	s.slots[idx].node = nil
	s.free = append(s.free, idx)
	s.live--
	return true
}

func (s *store) len() int {
	return s.live
}

// nodes returns every live node in creation order.
func (s *store) nodes() []*node {
	all := make([]*node, 0, s.live)
	for i := range s.slots {
		if n := s.slots[i].node; n != nil {
			all = append(all, n)
		}
	}
	slices.SortFunc(all, func(a, b *node) int {
		return compareSeq(a, b)
	})
	return all
}

func compareSeq(a, b *node) int {
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	default:
		return 0
	}
}
