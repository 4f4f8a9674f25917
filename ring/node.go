package ring

import "shardring/hashing"

// VirtualNode is one of a physical node's positions on the ring. It is
// derived deterministically from the node ID and replica index and is
// immutable once placed.
type VirtualNode struct {
	Position hashing.Position
	NodeID   string
	Replica  int
}

// PhysicalNode is a cluster member. It owns virtualCount*Weight positions on
// the ring and the set of keys currently assigned to it. The owning Ring's
// lock guards the mutable fields; callers only ever see copies.
type PhysicalNode struct {
	ID     string
	Weight int

	keys      map[string]struct{}
	positions []hashing.Position
}

func newPhysicalNode(id string, weight int) *PhysicalNode {
	return &PhysicalNode{
		ID:     id,
		Weight: weight,
		keys:   make(map[string]struct{}),
	}
}
