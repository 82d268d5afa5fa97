package registry

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFunc builds an opaque value straight from its raw node.
type ParseFunc func(node *yaml.Node) (any, error)

// ConstructFunc turns the dynamic value produced by the decoder into a concrete
// instance. Types without a constructor are handed out as dynamic values.
type ConstructFunc func(dynamic any) (any, error)

// Descriptor identifies one registered type. Path is the only stable
// identifier; ShortName is derived from it and may collide across packages.
type Descriptor struct {
	Path        string
	ShortName   string
	Shape       Shape
	IsComponent bool
	IsResource  bool

	// Parse is required for Opaque shapes that should be decodable.
	Parse ParseFunc
	// Construct is optional for every shape.
	Construct ConstructFunc
}

func (d *Descriptor) Kind() Kind {
	return d.Shape.Kind()
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Path, d.Shape.Kind())
}

func (d *Descriptor) validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidDescriptor)
	}
	if d.Shape == nil {
		return fmt.Errorf("%w: %s has no shape", ErrInvalidDescriptor, d.Path)
	}
	if a, ok := d.Shape.(Array); ok && a.Len < 0 {
		return fmt.Errorf("%w: %s has negative length", ErrInvalidDescriptor, d.Path)
	}
	return nil
}

// IsOptionPath reports whether path names the optional wrapper Option[T].
func IsOptionPath(path string) bool {
	return strings.HasPrefix(path, "Option[") && strings.HasSuffix(path, "]")
}

// OptionPath returns the canonical path of Option[inner].
func OptionPath(inner string) string {
	return "Option[" + inner + "]"
}

// ListPath returns the canonical path of a growable list of item.
func ListPath(item string) string {
	return "[]" + item
}

// ArrayPath returns the canonical path of a fixed array of item.
func ArrayPath(item string, n int) string {
	return fmt.Sprintf("[%d]%s", n, item)
}

// MapPath returns the canonical path of a map from key to value.
func MapPath(key, value string) string {
	return "map[" + key + "]" + value
}

// ShortPath strips package qualifiers from every identifier in path, including
// identifiers nested in generic or container syntax:
//
//	github.com/acme/game/components.Speed  -> Speed
//	[]github.com/acme/game/components.Tag  -> []Tag
//	bevy_ecs::entity::Entity               -> Entity
func ShortPath(path string) string {
	var b strings.Builder
	start := 0
	flush := func(end int) {
		if end > start {
			b.WriteString(shortIdent(path[start:end]))
		}
	}
	for i, r := range path {
		switch r {
		case '[', ']', '<', '>', '(', ')', ',', ';', ' ':
			flush(i)
			b.WriteRune(r)
			start = i + 1
		}
	}
	flush(len(path))
	return b.String()
}

func shortIdent(ident string) string {
	if i := strings.LastIndex(ident, "::"); i >= 0 {
		ident = ident[i+2:]
	}
	if i := strings.LastIndex(ident, "/"); i >= 0 {
		ident = ident[i+1:]
	}
	if i := strings.LastIndex(ident, "."); i >= 0 {
		ident = ident[i+1:]
	}
	return ident
}
