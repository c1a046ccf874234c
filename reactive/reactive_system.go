package reactive

import (
	"io"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

const DefaultMaxFlushRounds = 100

// OnErrorFunc receives errors that have no caller to return to, such as a
// memo failing while being read through Value outside of any flush.
type OnErrorFunc func(from NodeID, err error)

type options struct {
	logger         *slog.Logger
	maxFlushRounds int
	capacity       int
}

type Option func(*options)

// WithLogger sets the logger used for flush and disposal diagnostics.
// The system is silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxFlushRounds bounds how many write-then-sweep rounds a single flush
// may run before giving up with ErrFlushLimit.
func WithMaxFlushRounds(rounds int) Option {
	return func(o *options) {
		o.maxFlushRounds = rounds
	}
}

// WithCapacity presizes the node store.
func WithCapacity(nodes int) Option {
	return func(o *options) {
		o.capacity = nodes
	}
}

// ReactiveSystem is one reactive root: node store, dependency graph,
// tracking stack and propagator. It is not safe for concurrent use, confine
// it to a single goroutine (see Loop).
type ReactiveSystem struct {
	store  *store
	stack  []NodeID // tracking stack, zero entries are untracked frames
	active int      // memos and effects currently on the stack
	owner  *Scope
	root   *Scope

	batchDepth int
	flushing   bool
	epoch      uint64
	pending    []NodeID
	deferred   []NodeID
	sweepErr   error

	onError        OnErrorFunc
	logger         *slog.Logger
	maxFlushRounds int
}

func CreateReactiveSystem(onError OnErrorFunc, opts ...Option) *ReactiveSystem {
	o := options{
		maxFlushRounds: DefaultMaxFlushRounds,
		capacity:       DefaultStoreCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.maxFlushRounds <= 0 {
		o.maxFlushRounds = DefaultMaxFlushRounds
	}

	rs := &ReactiveSystem{
		store:          newStore(o.capacity),
		onError:        onError,
		logger:         o.logger,
		maxFlushRounds: o.maxFlushRounds,
	}
	rs.root = newScope(rs, nil)
	rs.owner = rs.root
	return rs
}

// Root is the scope that owns nodes created outside of any other scope.
func (rs *ReactiveSystem) Root() *Scope {
	return rs.root
}

// Len reports the number of live nodes.
func (rs *ReactiveSystem) Len() int {
	return rs.store.len()
}

// Kind reports the kind of a live node.
func (rs *ReactiveSystem) Kind(id NodeID) (NodeKind, error) {
	n, ok := rs.store.get(id)
	if !ok {
		return 0, staleNode(id)
	}
	return n.kind, nil
}

func (rs *ReactiveSystem) newNode(kind NodeKind) *node {
	n := &node{
		kind:    kind,
		subs:    mapset.NewThreadUnsafeSet[NodeID](),
		sources: mapset.NewThreadUnsafeSet[NodeID](),
		owner:   rs.owner,
	}
	rs.store.insert(n)
	if kind != KindSignal {
		n.owned = newScope(rs, rs.owner)
		n.owned.node = n.id
	}
	rs.owner.adopt(n.id)
	return n
}

func (rs *ReactiveSystem) setName(id NodeID, name string) {
	if n, ok := rs.store.get(id); ok {
		n.name = name
	}
}

// Dispose removes a node and every edge touching it. Disposing a node that
// is currently running is deferred until it returns. Unknown ids are ignored.
func (rs *ReactiveSystem) Dispose(id NodeID) {
	n, ok := rs.store.get(id)
	if !ok {
		return
	}
	rs.disposeNode(n)
}

func (rs *ReactiveSystem) disposeNode(n *node) {
	if !rs.store.alive(n) {
		return
	}
	if n.running {
		if !n.disposing {
			n.disposing = true
			rs.deferred = append(rs.deferred, n.id)
		}
		return
	}
	if n.owned != nil {
		n.owned.Dispose()
	}
	rs.detach(n)
	if n.owner != nil {
		n.owner.forget(n.id)
	}
	rs.store.remove(n.id)
	n.pending = false
	n.batchValue = nil
}

// drainDeferred disposes nodes whose disposal waited for a run to finish.
// During a flush the sweep drains them itself once it is done.
func (rs *ReactiveSystem) drainDeferred() {
	if rs.flushing {
		return
	}
	rs.disposeDeferred()
}

func (rs *ReactiveSystem) disposeDeferred() {
	if len(rs.deferred) == 0 || rs.active != 0 {
		return
	}
	deferred := rs.deferred
	rs.deferred = nil
	for _, id := range deferred {
		if n, ok := rs.store.get(id); ok {
			rs.logger.Debug("disposing deferred node", "node", n.String())
			n.disposing = false
			rs.disposeNode(n)
		}
	}
}

func (rs *ReactiveSystem) idle() bool {
	return rs.batchDepth == 0 && !rs.flushing && rs.active == 0
}

// settlePending flushes writes made by user code that ran outside of any
// batch, e.g. a memo that wrote a signal while being read at top level.
func (rs *ReactiveSystem) settlePending() error {
	if !rs.idle() || len(rs.pending) == 0 {
		return nil
	}
	return rs.flush()
}

func (rs *ReactiveSystem) reportError(from NodeID, err error) {
	if rs.flushing {
		if rs.sweepErr == nil {
			rs.sweepErr = &BatchError{Node: from, Err: err}
		}
		return
	}
	rs.logger.Warn("reactive error", "node", from.String(), "error", err)
	if rs.onError != nil {
		rs.onError(from, err)
	}
}
