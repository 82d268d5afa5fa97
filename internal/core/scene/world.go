// Package scene is a small scene graph: named nodes in a parent/child
// hierarchy, each holding components keyed by canonical type path and the raw
// metadata blobs it was imported with.
package scene

import (
	"fmt"
	"sync"
)

type node struct {
	name       string
	parent     NodeID
	children   []NodeID
	components map[string]any
	extras     map[Level]string
	instance   *InstanceID
	processed  bool
}

// World owns every node. It is safe for concurrent use, but hierarchy edits
// are expected to come from a single driver per tick.
type World struct {
	mu     sync.RWMutex
	next   NodeID
	nodes  map[NodeID]*node
	added  []NodeID
	queued map[NodeID]struct{}
}

func NewWorld() *World {
	return &World{
		nodes:  make(map[NodeID]*node),
		queued: make(map[NodeID]struct{}),
	}
}

// Spawn creates a root node.
func (w *World) Spawn(name string) NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked(name)
}

// SpawnChild creates a node and appends it to parent's children.
func (w *World) SpawnChild(parent NodeID, name string) (NodeID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.nodes[parent]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	id := w.spawnLocked(name)
	w.nodes[id].parent = parent
	p.children = append(p.children, id)
	return id, nil
}

func (w *World) spawnLocked(name string) NodeID {
	id := w.next
	w.next++
	w.nodes[id] = &node{
		name:       name,
		parent:     Placeholder,
		components: make(map[string]any),
		extras:     make(map[Level]string),
	}
	return id
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.nodes)
}

func (w *World) Exists(id NodeID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.nodes[id]
	return ok
}

func (w *World) Name(id NodeID) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n, ok := w.nodes[id]; ok {
		return n.name
	}
	return ""
}

// Parent returns the parent of id, if any.
func (w *World) Parent(id NodeID) (NodeID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok || n.parent == Placeholder {
		return Placeholder, false
	}
	return n.parent, true
}

// Children returns a copy of the ordered children of id.
func (w *World) Children(id NodeID) []NodeID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// SetParent moves child under parent, appending it to the end of the
// children list.
func (w *World) SetParent(child, parent NodeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setParentLocked(child, parent)
}

func (w *World) setParentLocked(child, parent NodeID) error {
	c, ok := w.nodes[child]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, child)
	}
	p, ok := w.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	for at := parent; at != Placeholder; at = w.nodes[at].parent {
		if at == child {
			return fmt.Errorf("%w: %s under %s", ErrCycle, child, parent)
		}
	}
	if c.parent == parent {
		return nil
	}
	w.detachLocked(child)
	c.parent = parent
	p.children = append(p.children, child)
	return nil
}

func (w *World) detachLocked(id NodeID) {
	n := w.nodes[id]
	if n.parent == Placeholder {
		return
	}
	if p, ok := w.nodes[n.parent]; ok {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = Placeholder
}

// Reparent moves every child of from under to, keeping their order. Children
// already attached to to are not duplicated.
func (w *World) Reparent(from, to NodeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := w.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	for _, child := range append([]NodeID(nil), f.children...) {
		if err := w.setParentLocked(child, to); err != nil {
			return err
		}
	}
	return nil
}

// Despawn removes id and its whole subtree.
func (w *World) Despawn(id NodeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	w.detachLocked(id)
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, w.nodes[cur].children...)
		delete(w.nodes, cur)
		delete(w.queued, cur)
	}
	return nil
}

// Ancestors returns the chain of parents of id, nearest first.
func (w *World) Ancestors(id NodeID) []NodeID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []NodeID
	n, ok := w.nodes[id]
	for ok && n.parent != Placeholder {
		out = append(out, n.parent)
		n, ok = w.nodes[n.parent]
	}
	return out
}

// Descendants returns every node below id in depth-first pre-order.
func (w *World) Descendants(id NodeID) []NodeID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nodes[id]
	if !ok {
		return nil
	}
	var out []NodeID
	var walk func(children []NodeID)
	walk = func(children []NodeID) {
		for _, c := range children {
			out = append(out, c)
			walk(w.nodes[c].children)
		}
	}
	walk(n.children)
	return out
}
