package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Scope owns the nodes created while it is current and disposes them
// together. Memos and effects get a child scope of their own that is reset
// before every run, so anything they create lives for one run only.
type Scope struct {
	rs       *ReactiveSystem
	parent   *Scope
	node     NodeID // memo or effect whose runs this scope holds, zero otherwise
	children mapset.Set[*Scope]
	nodes    mapset.Set[NodeID]
	cleanups []func()
	values   map[uint64]any
	disposed bool
}

func newScope(rs *ReactiveSystem, parent *Scope) *Scope {
	s := &Scope{
		rs:       rs,
		parent:   parent,
		children: mapset.NewThreadUnsafeSet[*Scope](),
		nodes:    mapset.NewThreadUnsafeSet[NodeID](),
	}
	if parent != nil {
		parent.children.Add(s)
	}
	return s
}

// NewScope runs fn inside a fresh child of the current scope. Reads made by fn
// are not tracked by whatever is running, and writes are batched.
func (rs *ReactiveSystem) NewScope(fn func(s *Scope) error) (*Scope, error) {
	s := newScope(rs, rs.owner)
	err := rs.Batch(func() error {
		prevOwner := rs.owner
		rs.owner = s
		rs.stack = append(rs.stack, 0)
		defer func() {
			rs.stack = rs.stack[:len(rs.stack)-1]
			rs.owner = prevOwner
		}()
		return fn(s)
	})
	return s, err
}

// ownerNode is the nearest memo or effect whose run created s.
func (s *Scope) ownerNode() NodeID {
	for ; s != nil; s = s.parent {
		if s.node != 0 {
			return s.node
		}
	}
	return 0
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Disposed() bool {
	return s.disposed
}

// Len reports how many live nodes the scope owns directly.
func (s *Scope) Len() int {
	return s.nodes.Cardinality()
}

func (s *Scope) adopt(id NodeID) {
	if s.disposed {
		return
	}
	s.nodes.Add(id)
}

func (s *Scope) forget(id NodeID) {
	s.nodes.Remove(id)
}

// OnCleanup registers fn to run when the scope is disposed or, for the scope
// of a memo or effect, before its next run. Cleanups run last in, first out.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed {
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// OnCleanup registers fn on the scope that is current, which inside an effect
// is that effect's own scope.
func OnCleanup(rs *ReactiveSystem, fn func()) {
	rs.owner.OnCleanup(fn)
}

// Dispose tears down every child scope and node the scope owns, then runs its
// cleanups. It is idempotent.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.teardown()
	s.disposed = true
	if s.parent != nil {
		s.parent.children.Remove(s)
	}
	s.rs.logger.Debug("scope disposed")
}

// DisposeScope tears down every node created under s.
func DisposeScope(s *Scope) {
	s.Dispose()
}

func (s *Scope) reset() {
	s.teardown()
}

func (s *Scope) teardown() {
	for _, child := range s.children.ToSlice() {
		child.Dispose()
	}
	s.children.Clear()

	for _, id := range s.nodes.ToSlice() {
		s.rs.Dispose(id)
	}

	cleanups := s.cleanups
	s.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	s.values = nil
}
