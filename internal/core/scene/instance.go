package scene

import "fmt"

// MarkInstance flags id as the root of a scene instantiation and returns the
// new instance identifier. Marking a root twice keeps the first identifier.
func (w *World) MarkInstance(id NodeID) (InstanceID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.nodes[id]
	if !ok {
		return InstanceID{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.instance == nil {
		inst := NewInstanceID()
		n.instance = &inst
	}
	return *n.instance, nil
}

// Instance returns the instance marker carried by id itself.
func (w *World) Instance(id NodeID) (InstanceID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok || n.instance == nil {
		return InstanceID{}, false
	}
	return *n.instance, true
}

// InstanceOf walks from id up through its ancestors and returns the nearest
// instance root.
func (w *World) InstanceOf(id NodeID) (NodeID, InstanceID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for at := id; at != Placeholder; {
		n, ok := w.nodes[at]
		if !ok {
			break
		}
		if n.instance != nil {
			return at, *n.instance, true
		}
		at = n.parent
	}
	return Placeholder, InstanceID{}, false
}
