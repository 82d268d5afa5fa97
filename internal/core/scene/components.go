package scene

import (
	"fmt"
	"sort"
)

// Insert attaches a component under its canonical type path, replacing any
// previous value of the same type.
func (w *World) Insert(id NodeID, typePath string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.components[typePath] = value
	return nil
}

func (w *World) Component(id NodeID, typePath string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok {
		return nil, false
	}
	v, ok := n.components[typePath]
	return v, ok
}

// Components lists the type paths attached to id, sorted.
func (w *World) Components(id NodeID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.components))
	for p := range n.components {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SetExtras stores a metadata blob on id and queues the node for the next
// DrainAddedExtras call.
func (w *World) SetExtras(id NodeID, level Level, blob string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.extras[level] = blob
	if _, queued := w.queued[id]; !queued {
		w.queued[id] = struct{}{}
		w.added = append(w.added, id)
	}
	return nil
}

// Extras returns the blob authored on id at level.
func (w *World) Extras(id NodeID, level Level) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok {
		return "", false
	}
	blob, ok := n.extras[level]
	return blob, ok
}

// DrainAddedExtras returns the nodes that received metadata since the last
// call, in the order it was added. Despawned nodes are dropped.
func (w *World) DrainAddedExtras() []NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]NodeID, 0, len(w.added))
	for _, id := range w.added {
		if _, ok := w.nodes[id]; ok {
			out = append(out, id)
		}
	}
	w.added = w.added[:0]
	w.queued = make(map[NodeID]struct{})
	return out
}

func (w *World) MarkProcessed(id NodeID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n, ok := w.nodes[id]; ok {
		n.processed = true
	}
}

func (w *World) Processed(id NodeID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	return ok && n.processed
}
