package ring

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"shardring/hashing"
)

// DefaultVirtualNodes is the number of ring positions created per unit of
// node weight. Higher values smooth the key distribution at the cost of
// memory and slower topology mutations.
const DefaultVirtualNodes = 150

// Ring is a consistent hashing ring. It is safe for concurrent use: lookups
// take a read lock, topology and key mutations take the write lock, so no
// reader ever observes a partially updated position sequence.
type Ring struct {
	mu           sync.RWMutex
	hash         hashing.Function
	virtualCount int

	vnodes    []VirtualNode               // sorted by position for binary search
	positions map[hashing.Position]string // position -> nodeID (reverse index)
	nodes     map[string]*PhysicalNode    // nodeID -> node
	owners    map[string]string           // tracked key -> owning nodeID

	observers []Observer
}

// Option configures a Ring during construction.
type Option func(*Ring)

// WithHash replaces the default FNV-128a strategy.
func WithHash(f hashing.Function) Option {
	return func(r *Ring) {
		if f != nil {
			r.hash = f
		}
	}
}

// WithVirtualNodes sets the number of positions per unit of node weight.
// Values below 1 keep the default.
func WithVirtualNodes(n int) Option {
	return func(r *Ring) {
		if n > 0 {
			r.virtualCount = n
		}
	}
}

// New creates an empty ring.
func New(opts ...Option) *Ring {
	r := &Ring{
		hash:         hashing.Default(),
		virtualCount: DefaultVirtualNodes,
		positions:    make(map[hashing.Position]string),
		nodes:        make(map[string]*PhysicalNode),
		owners:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddNode places nodeID on the ring with virtualCount*weight positions and
// moves the tracked keys the new node now owns. It returns false without
// touching the ring when the node is already present. A weight below 1 is a
// construction error. Observer failures are returned to the caller after the
// mutation has already committed.
func (r *Ring) AddNode(nodeID string, weight int) (bool, error) {
	if weight < 1 {
		return false, fmt.Errorf("node %s: weight must be positive, got %d", nodeID, weight)
	}

	r.mu.Lock()
	if _, exists := r.nodes[nodeID]; exists {
		r.mu.Unlock()
		return false, nil
	}

	node := newPhysicalNode(nodeID, weight)
	count := r.virtualCount * weight
	for i := 0; i < count; i++ {
		pos := r.placePosition(nodeID, i)
		idx := sort.Search(len(r.vnodes), func(j int) bool {
			return !r.vnodes[j].Position.Less(pos)
		})
		r.vnodes = append(r.vnodes, VirtualNode{})
		copy(r.vnodes[idx+1:], r.vnodes[idx:])
		r.vnodes[idx] = VirtualNode{Position: pos, NodeID: nodeID, Replica: i}
		r.positions[pos] = nodeID
		node.positions = append(node.positions, pos)
	}
	sort.Slice(node.positions, func(i, j int) bool {
		return node.positions[i].Less(node.positions[j])
	})
	r.nodes[nodeID] = node

	// Keys whose clockwise successor is now one of the new node's positions
	// move to it; everything else stays put.
	for key, owner := range r.owners {
		newOwner, _ := r.lookupLocked(key)
		if newOwner != owner {
			delete(r.nodes[owner].keys, key)
			r.nodes[newOwner].keys[key] = struct{}{}
			r.owners[key] = newOwner
		}
	}
	r.mu.Unlock()

	return true, r.notifyAdded(nodeID)
}

// placePosition derives the position for one virtual node, resampling with
// an attempt suffix until it does not collide with an occupied position.
// Attempts are tried in order, so placement stays deterministic.
func (r *Ring) placePosition(nodeID string, replica int) hashing.Position {
	id := nodeID + "#" + strconv.Itoa(replica)
	pos := r.hash.Hash(id)
	for attempt := 1; ; attempt++ {
		if _, taken := r.positions[pos]; !taken {
			return pos
		}
		pos = r.hash.Hash(id + "#" + strconv.Itoa(attempt))
	}
}

// RemoveNode deletes nodeID and exactly its own positions, then reassigns
// every key it owned against the post-removal ring. The whole operation runs
// under the write lock, so no lookup observes a half-removed node. Keys on
// the last remaining node become untracked. Returns false when the node is
// unknown.
func (r *Ring) RemoveNode(nodeID string) (bool, error) {
	r.mu.Lock()
	node, exists := r.nodes[nodeID]
	if !exists {
		r.mu.Unlock()
		return false, nil
	}

	for _, pos := range node.positions {
		delete(r.positions, pos)
	}
	kept := r.vnodes[:0]
	for _, v := range r.vnodes {
		if v.NodeID != nodeID {
			kept = append(kept, v)
		}
	}
	r.vnodes = kept
	delete(r.nodes, nodeID)

	for key := range node.keys {
		if newOwner, ok := r.lookupLocked(key); ok {
			r.nodes[newOwner].keys[key] = struct{}{}
			r.owners[key] = newOwner
		} else {
			delete(r.owners, key)
		}
	}
	r.mu.Unlock()

	return true, r.notifyRemoved(nodeID)
}

// GetNode returns the node responsible for key: the owner of the first
// position clockwise from the key's hash. Returns ("", false) on an empty
// ring.
func (r *Ring) GetNode(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(key)
}

// lookupLocked binary-searches the sorted positions for the key's clockwise
// successor, wrapping past the highest position to the first. Callers must
// hold at least the read lock.
func (r *Ring) lookupLocked(key string) (string, bool) {
	if len(r.vnodes) == 0 {
		return "", false
	}
	pos := r.hash.Hash(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return !r.vnodes[i].Position.Less(pos)
	})
	if idx == len(r.vnodes) {
		idx = 0
	}
	return r.vnodes[idx].NodeID, true
}

// GetNodes returns up to count distinct physical nodes, walking clockwise
// from the key's position. The first entry always equals GetNode(key). When
// count exceeds the number of physical nodes the result contains exactly one
// entry per node, never padding or duplicates.
func (r *Ring) GetNodes(key string, count int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 || count <= 0 {
		return nil
	}
	pos := r.hash.Hash(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return !r.vnodes[i].Position.Less(pos)
	})
	if idx == len(r.vnodes) {
		idx = 0
	}

	seen := make(map[string]bool, count)
	result := make([]string, 0, count)
	for i := 0; i < len(r.vnodes) && len(result) < count; i++ {
		id := r.vnodes[(idx+i)%len(r.vnodes)].NodeID
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}

// AddKey assigns key to its ring-derived owner and returns that owner.
// Returns ("", false) on an empty ring. Re-adding a tracked key re-derives
// its owner without inflating the key count.
func (r *Ring) AddKey(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.lookupLocked(key)
	if !ok {
		return "", false
	}
	if prev, tracked := r.owners[key]; tracked && prev != owner {
		delete(r.nodes[prev].keys, key)
	}
	r.nodes[owner].keys[key] = struct{}{}
	r.owners[key] = owner
	return owner, true
}

// RemoveKey stops tracking key. Returns false when the key is not tracked.
func (r *Ring) RemoveKey(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, tracked := r.owners[key]
	if !tracked {
		return false
	}
	delete(r.nodes[owner].keys, key)
	delete(r.owners, key)
	return true
}

// Rebalance recomputes every tracked key's owner against the current
// topology and moves the ones whose owner changed, restoring ring-derived
// placement after administrative overrides. Returns the number of keys that
// moved.
func (r *Ring) Rebalance() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	moved := 0
	for key, owner := range r.owners {
		newOwner, _ := r.lookupLocked(key)
		if newOwner == owner {
			continue
		}
		delete(r.nodes[owner].keys, key)
		r.nodes[newOwner].keys[key] = struct{}{}
		r.owners[key] = newOwner
		moved++
	}
	return moved
}

// ReassignKey moves a tracked key to toNode regardless of where the ring
// would place it. This is the administrative override behind node drains;
// the next Rebalance undoes it unless topology agrees by then. Returns false
// when the key is not tracked or toNode is unknown.
func (r *Ring) ReassignKey(key, toNode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst, ok := r.nodes[toNode]
	if !ok {
		return false
	}
	owner, tracked := r.owners[key]
	if !tracked {
		return false
	}
	if owner != toNode {
		delete(r.nodes[owner].keys, key)
		dst.keys[key] = struct{}{}
		r.owners[key] = toNode
	}
	return true
}

// HasNode reports whether nodeID is on the ring.
func (r *Ring) HasNode(nodeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[nodeID]
	return ok
}

// NodeWeight returns nodeID's weight.
func (r *Ring) NodeWeight(nodeID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[nodeID]
	if !ok {
		return 0, false
	}
	return node.Weight, true
}

// Nodes returns the physical node IDs on the ring, sorted.
func (r *Ring) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// KeysOf returns a sorted copy of the keys currently assigned to nodeID.
func (r *Ring) KeysOf(nodeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[nodeID]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(node.keys))
	for key := range node.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Assignments returns a copy of the tracked key -> node map.
func (r *Ring) Assignments() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.owners))
	for key, owner := range r.owners {
		out[key] = owner
	}
	return out
}

// VirtualNodeCount returns the number of positions on the ring.
func (r *Ring) VirtualNodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vnodes)
}
