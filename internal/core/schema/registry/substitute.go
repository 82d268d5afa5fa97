package registry

import (
	"fmt"
	"sync"
)

// Substitution is a temporary override of one registry entry. It must be
// restored exactly once, before any other substitution can be made.
type Substitution struct {
	reg      *Registry
	path     string
	previous *Descriptor
	once     sync.Once
}

// Previous returns the entry that was shadowed, or nil when the path was not
// registered before the substitution.
func (s *Substitution) Previous() *Descriptor {
	return s.previous
}

// Substitute shadows the entry at path with desc until Restore is called.
// Only one substitution may be active per registry; a second call fails with
// ErrSubstitutionActive and leaves the registry untouched.
func (r *Registry) Substitute(path string, desc *Descriptor) (*Substitution, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	if desc.Path != path {
		return nil, fmt.Errorf("%w: substitute for %s has path %s", ErrInvalidDescriptor, path, desc.Path)
	}
	if desc.ShortName == "" {
		desc.ShortName = ShortPath(desc.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubstitutionActive, r.active.path)
	}

	sub := &Substitution{reg: r, path: path, previous: r.entries[path]}
	if sub.previous != nil {
		r.replaceLocked(sub.previous, desc)
	} else {
		r.insertLocked(desc)
	}
	r.active = sub
	return sub, nil
}

// Restore puts the shadowed entry back. Restoring twice, restoring a
// substitution that is not the active one or one never returned by
// Substitute returns ErrNotSubstituted.
func (s *Substitution) Restore() error {
	err := fmt.Errorf("%w: %s", ErrNotSubstituted, s.path)
	if s.reg == nil {
		return err
	}
	s.once.Do(func() {
		r := s.reg
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.active != s {
			return
		}
		current := r.entries[s.path]
		if s.previous != nil {
			r.replaceLocked(current, s.previous)
		} else {
			r.removeLocked(s.path)
		}
		r.active = nil
		err = nil
	})
	return err
}

// replaceLocked swaps an entry in place, keeping its registration order.
func (r *Registry) replaceLocked(old, desc *Descriptor) {
	r.entries[desc.Path] = desc
	if old.ShortName == desc.ShortName {
		return
	}
	paths := removeString(r.byShort[old.ShortName], old.Path)
	if len(paths) == 0 {
		delete(r.byShort, old.ShortName)
	} else {
		r.byShort[old.ShortName] = paths
	}
	r.byShort[desc.ShortName] = append(r.byShort[desc.ShortName], desc.Path)
}
