package reactive

// NodeInfo is a point in time description of one node.
type NodeInfo struct {
	ID          NodeID
	Kind        NodeKind
	Name        string
	State       string
	Sources     []NodeID
	Subscribers []NodeID
}

// Label is the name when set, the id otherwise.
func (ni NodeInfo) Label() string {
	if ni.Name != "" {
		return ni.Name
	}
	return ni.ID.String()
}

// Snapshot describes every live node in creation order.
func (rs *ReactiveSystem) Snapshot() []NodeInfo {
	nodes := rs.store.nodes()
	infos := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		infos[i] = NodeInfo{
			ID:          n.id,
			Kind:        n.kind,
			Name:        n.name,
			State:       n.state.String(),
			Sources:     sortedIDs(n.sources.ToSlice()),
			Subscribers: sortedIDs(n.subs.ToSlice()),
		}
	}
	return infos
}
