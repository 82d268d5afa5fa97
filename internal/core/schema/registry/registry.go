// Package registry is the runtime type catalogue used to turn authored scene
// metadata into typed values. Each entry maps a canonical type path to a shape
// descriptor plus the closures needed to build instances of it.
//
// The registry is filled once at startup and is read-mostly afterwards. The only
// mutation allowed after startup is a single Substitute/Restore pair.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry is safe for concurrent lookups. Registration should happen from a
// single goroutine during startup.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Descriptor
	order   []string
	byShort map[string][]string
	active  *Substitution
}

// New creates a registry pre-populated with the builtin primitives.
func New() *Registry {
	r := NewEmpty()
	RegisterBuiltins(r)
	return r
}

// NewEmpty creates a registry with no entries at all.
func NewEmpty() *Registry {
	return &Registry{
		entries: make(map[string]*Descriptor),
		byShort: make(map[string][]string),
	}
}

// Register adds a descriptor. ShortName is derived from Path when empty.
func (r *Registry) Register(desc *Descriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	if desc.ShortName == "" {
		desc.ShortName = ShortPath(desc.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[desc.Path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, desc.Path)
	}
	r.insertLocked(desc)
	return nil
}

// MustRegister is Register for static registration tables.
func (r *Registry) MustRegister(desc *Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

func (r *Registry) insertLocked(desc *Descriptor) {
	r.entries[desc.Path] = desc
	r.order = append(r.order, desc.Path)
	r.byShort[desc.ShortName] = append(r.byShort[desc.ShortName], desc.Path)
}

func (r *Registry) removeLocked(path string) {
	desc, ok := r.entries[path]
	if !ok {
		return
	}
	delete(r.entries, path)
	r.order = removeString(r.order, path)
	paths := removeString(r.byShort[desc.ShortName], path)
	if len(paths) == 0 {
		delete(r.byShort, desc.ShortName)
	} else {
		r.byShort[desc.ShortName] = paths
	}
}

// LookupByPath finds a type by its canonical path.
func (r *Registry) LookupByPath(path string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.entries[path]
	return desc, ok
}

// LookupByShortName finds a type by its short name. When several types share
// the short name, the one registered first wins.
func (r *Registry) LookupByShortName(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := r.byShort[name]
	if len(paths) == 0 {
		return nil, false
	}
	return r.entries[paths[0]], true
}

// Ambiguous returns every canonical path sharing a short name, in
// registration order. Used to warn about collisions.
func (r *Registry) Ambiguous(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.byShort[name]) < 2 {
		return nil
	}
	return append([]string(nil), r.byShort[name]...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Descriptors returns every entry sorted by canonical path.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	out := make([]*Descriptor, 0, len(r.entries))
	for _, desc := range r.entries {
		out = append(out, desc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Each calls fn for every entry in canonical path order until fn returns false.
func (r *Registry) Each(fn func(*Descriptor) bool) {
	for _, desc := range r.Descriptors() {
		if !fn(desc) {
			return
		}
	}
}

// Decode builds an instance of desc from a raw value node. Construction is
// atomic: any failure at any depth returns an error and no value.
func (r *Registry) Decode(desc *Descriptor, node *yaml.Node) (any, error) {
	d := decoder{reg: r}
	return d.decode(desc, node, "")
}

// DecodePath is Decode with a lookup by canonical path.
func (r *Registry) DecodePath(path string, node *yaml.Node) (any, error) {
	desc, ok := r.LookupByPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, path)
	}
	return r.Decode(desc, node)
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
