package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// NodeID references a node in a ReactiveSystem's store. The low 32 bits hold
// the slot index and the high 32 bits its generation, so an id that outlives
// its node never aliases whatever gets allocated into the slot next.
// The zero NodeID is never handed out.
type NodeID uint64

func makeNodeID(index, generation uint32) NodeID {
	return NodeID(uint64(generation)<<32 | uint64(index))
}

func (id NodeID) index() uint32 {
	return uint32(id)
}

func (id NodeID) generation() uint32 {
	return uint32(id >> 32)
}

func (id NodeID) String() string {
	return fmt.Sprintf("#%d.%d", id.index(), id.generation())
}

type NodeKind uint8

const (
	KindSignal NodeKind = iota + 1
	KindMemo
	KindEffect
)

func (k NodeKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindMemo:
		return "memo"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

type nodeState uint8

const (
	stateClean nodeState = iota // value is current
	stateCheck                  // a source may have changed, look before recomputing
	stateDirty                  // must recompute on next settle
)

func (s nodeState) String() string {
	switch s {
	case stateClean:
		return "clean"
	case stateCheck:
		return "check"
	case stateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

type ErrFn func() error

type equalsFunc func(a, b any) bool

type node struct {
	id   NodeID
	kind NodeKind
	seq  uint64
	name string

	state       nodeState
	initialized bool
	running     bool
	disposing   bool // disposal deferred until the current run or sweep ends

	changedAt  uint64 // epoch of the flush round in which value last changed
	verifiedAt uint64 // epoch at which the node was last known current

	value  any
	equals equalsFunc

	compute func(oldValue any) (any, error)
	run     ErrFn

	subs    mapset.Set[NodeID]
	sources mapset.Set[NodeID]

	owner *Scope
	owned *Scope

	// signal writes waiting for the next flush remember the value they had
	// when the batch started
	pending    bool
	batchValue any
}

func (n *node) String() string {
	if n.name != "" {
		return fmt.Sprintf("%s %q", n.kind, n.name)
	}
	return fmt.Sprintf("%s %s", n.kind, n.id)
}

func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

func eraseEquals[T any](eq func(a, b T) bool) equalsFunc {
	return func(a, b any) bool {
		return eq(as[T](a), as[T](b))
	}
}

func equal[T comparable](a, b T) bool {
	return a == b
}
