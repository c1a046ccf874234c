package reactive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleNode is returned when an operation references a disposed node.
	// Callers usually treat it as a no-op since whatever held the id is
	// being torn down as well.
	ErrStaleNode = errors.New("reactive: stale node")

	// ErrCycle matches every *CycleError.
	ErrCycle = errors.New("reactive: dependency cycle")

	// ErrPoisonedBatch matches every *BatchError.
	ErrPoisonedBatch = errors.New("reactive: poisoned batch")

	// ErrFlushLimit is returned when effects keep writing signals and a flush
	// does not settle within the configured number of rounds.
	ErrFlushLimit = errors.New("reactive: flush did not settle")

	// ErrNotWritable is returned when writing to a memo or effect id.
	ErrNotWritable = errors.New("reactive: node is not writable")

	// ErrLoopClosed is returned when posting to a closed Loop.
	ErrLoopClosed = errors.New("reactive: loop closed")
)

func staleNode(id NodeID) error {
	return fmt.Errorf("%w: %s", ErrStaleNode, id)
}

// CycleError is the panic value raised when a node ends up depending on
// itself. It is a programming error in how the graph was built and is never
// returned as a plain error.
type CycleError struct {
	Path []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return ErrCycle.Error() + ": " + strings.Join(parts, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// BatchError reports the memo or effect whose function failed and aborted a
// flush. Nodes updated before the failure keep their new values, the rest are
// left dirty and recompute the next time they are reached.
type BatchError struct {
	Node NodeID
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrPoisonedBatch, e.Node, e.Err)
}

func (e *BatchError) Unwrap() []error {
	return []error{ErrPoisonedBatch, e.Err}
}
