// Package resolver turns entity references authored as {name: X} into node
// identifiers. Resolution is always scoped to one scene instantiation: the
// caller installs a Scope before decoding a blob and tears it down right after.
//
// The registry decoder knows nothing about scenes. The scope reaches it by
// temporarily substituting the entity type's descriptor with one that closes
// over the scope.
package resolver

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

var (
	ErrScopeActive    = errors.New("an entity reference scope is already installed")
	ErrScopeNotActive = errors.New("entity reference scope already torn down")
	ErrNotInstance    = errors.New("node is not a scene instance root")
)

// EntityPrimitive is the opaque primitive name of the entity type.
const EntityPrimitive = "Entity"

// Scope is the name table of one scene instantiation.
type Scope struct {
	Instance scene.InstanceID
	Root     scene.NodeID
	Names    map[string]scene.NodeID
	// Node is the display name of the node whose metadata is being decoded.
	Node string
}

// Lookup resolves a display name inside the scope.
func (s *Scope) Lookup(name string) (scene.NodeID, bool) {
	id, ok := s.Names[name]
	return id, ok
}

// BuildScope collects the named descendants of an instance root that carry
// node-level metadata. When names repeat, the first node in depth-first order
// wins.
func BuildScope(w *scene.World, root scene.NodeID) (Scope, error) {
	inst, ok := w.Instance(root)
	if !ok {
		return Scope{}, fmt.Errorf("%w: %s", ErrNotInstance, root)
	}
	names := make(map[string]scene.NodeID)
	for _, id := range w.Descendants(root) {
		if _, ok := w.Extras(id, scene.LevelNode); !ok {
			continue
		}
		name := w.Name(id)
		if name == "" {
			continue
		}
		if _, taken := names[name]; !taken {
			names[name] = id
		}
	}
	return Scope{Instance: inst, Root: root, Names: names}, nil
}

// Resolver owns the entity descriptor of one registry. At most one scope can
// be installed at a time.
type Resolver struct {
	reg    *registry.Registry
	logger log.Log
	active atomic.Bool

	resolved   atomic.Uint64
	unresolved atomic.Uint64
}

// New registers the default entity descriptor, which resolves every
// reference to scene.Placeholder. It fails if the entity type is already
// registered.
func New(reg *registry.Registry, logger log.Log) (*Resolver, error) {
	r := &Resolver{
		reg:    reg,
		logger: logger.With(log.String("component", "resolver")),
	}
	if err := reg.Register(r.descriptor(nil)); err != nil {
		return nil, fmt.Errorf("register entity type: %w", err)
	}
	return r, nil
}

// Install makes scope visible to the decoder. The returned teardown restores
// the default descriptor and must be called exactly once.
func (r *Resolver) Install(scope Scope) (func() error, error) {
	if !r.active.CompareAndSwap(false, true) {
		return nil, ErrScopeActive
	}

	sc := scope
	sub, err := r.reg.Substitute(scene.EntityTypePath, r.descriptor(&sc))
	if err != nil {
		r.active.Store(false)
		return nil, fmt.Errorf("install entity scope: %w", err)
	}

	var done atomic.Bool
	return func() error {
		if !done.CompareAndSwap(false, true) {
			return ErrScopeNotActive
		}
		defer r.active.Store(false)
		return sub.Restore()
	}, nil
}

// Active reports whether a scope is installed.
func (r *Resolver) Active() bool {
	return r.active.Load()
}

// Resolved and Unresolved count references since start-up.
func (r *Resolver) Resolved() uint64   { return r.resolved.Load() }
func (r *Resolver) Unresolved() uint64 { return r.unresolved.Load() }

func (r *Resolver) descriptor(scope *Scope) *registry.Descriptor {
	return &registry.Descriptor{
		Path:  scene.EntityTypePath,
		Shape: registry.Opaque{Primitive: EntityPrimitive},
		Parse: func(node *yaml.Node) (any, error) {
			return r.parse(scope, node)
		},
	}
}

// parse never fails on a name it cannot find: the reference becomes the
// placeholder and a diagnostic is logged.
func (r *Resolver) parse(scope *Scope, node *yaml.Node) (any, error) {
	var name string
	switch {
	case node == nil || node.Kind == 0 || node.Tag == "!!null":
	case node.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "name" && node.Content[i+1].Kind == yaml.ScalarNode {
				name = node.Content[i+1].Value
				break
			}
		}
	default:
		return nil, fmt.Errorf("%w: entity reference must be a mapping with a name", registry.ErrShapeMismatch)
	}

	if scope == nil {
		r.miss("entity reference decoded without an instance scope", "", name)
		return scene.Placeholder, nil
	}
	if name == "" {
		r.miss("entity reference has no name", scope.Node, name, log.String("instance", scope.Instance.String()))
		return scene.Placeholder, nil
	}
	id, ok := scope.Lookup(name)
	if !ok {
		r.miss("entity reference not found in instance", scope.Node, name, log.String("instance", scope.Instance.String()))
		return scene.Placeholder, nil
	}
	r.resolved.Add(1)
	return id, nil
}

func (r *Resolver) miss(msg, node, name string, extra ...log.Field) {
	r.unresolved.Add(1)
	fields := append([]log.Field{log.Node(node), log.Type(scene.EntityTypePath), log.String("name", name)}, extra...)
	r.logger.Warn(msg, fields...)
}
