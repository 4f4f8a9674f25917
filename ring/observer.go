package ring

import (
	"fmt"
	"log"
)

// Observer is notified synchronously after a topology mutation has committed
// and the ring is consistent again. An observer error propagates to the
// AddNode/RemoveNode caller, but the mutation itself is never rolled back;
// later observers are skipped.
type Observer interface {
	NodeAdded(nodeID string) error
	NodeRemoved(nodeID string) error
}

// RegisterObserver appends o to the notification list. Observers run in
// registration order.
func (r *Ring) RegisterObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// notifyAdded and notifyRemoved run outside the write lock so observers may
// read the ring without deadlocking.
func (r *Ring) notifyAdded(nodeID string) error {
	for _, o := range r.snapshotObservers() {
		if err := o.NodeAdded(nodeID); err != nil {
			return fmt.Errorf("observer after adding node %s: %w", nodeID, err)
		}
	}
	return nil
}

func (r *Ring) notifyRemoved(nodeID string) error {
	for _, o := range r.snapshotObservers() {
		if err := o.NodeRemoved(nodeID); err != nil {
			return fmt.Errorf("observer after removing node %s: %w", nodeID, err)
		}
	}
	return nil
}

func (r *Ring) snapshotObservers() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Observer(nil), r.observers...)
}

// LogObserver writes topology changes to a standard-library logger.
type LogObserver struct {
	Logger *log.Logger // nil uses log.Default()
}

func (o LogObserver) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o LogObserver) NodeAdded(nodeID string) error {
	o.logger().Printf("ring: node %s added", nodeID)
	return nil
}

func (o LogObserver) NodeRemoved(nodeID string) error {
	o.logger().Printf("ring: node %s removed", nodeID)
	return nil
}
