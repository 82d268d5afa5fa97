package registry

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Builtin primitive paths. The path doubles as the Opaque primitive name.
const (
	PathBool    = "bool"
	PathInt     = "int"
	PathInt8    = "int8"
	PathInt16   = "int16"
	PathInt32   = "int32"
	PathInt64   = "int64"
	PathUint    = "uint"
	PathUint8   = "uint8"
	PathUint16  = "uint16"
	PathUint32  = "uint32"
	PathUint64  = "uint64"
	PathFloat32 = "float32"
	PathFloat64 = "float64"
	PathString  = "string"
	PathChar    = "char"
)

var builtinPrimitives = []string{
	PathBool,
	PathInt, PathInt8, PathInt16, PathInt32, PathInt64,
	PathUint, PathUint8, PathUint16, PathUint32, PathUint64,
	PathFloat32, PathFloat64,
	PathString, PathChar,
}

// RegisterBuiltins adds the primitive leaf types. Already registered paths are
// left alone.
func RegisterBuiltins(r *Registry) {
	for _, p := range builtinPrimitives {
		r.Ensure(PrimitiveOf(p))
	}
}

// PrimitiveOf describes a builtin scalar type.
func PrimitiveOf(primitive string) *Descriptor {
	return &Descriptor{
		Path:  primitive,
		Shape: Opaque{Primitive: primitive},
		Parse: func(node *yaml.Node) (any, error) {
			return ParseScalar(primitive, node)
		},
	}
}

// OptionOf describes Option[inner] as the two-variant enum None | Some(inner).
func OptionOf(inner string) *Descriptor {
	return &Descriptor{
		Path: OptionPath(inner),
		Shape: Enum{Variants: []Variant{
			UnitVariant("None"),
			TupleVariant("Some", inner),
		}},
	}
}

func ListOf(item string) *Descriptor {
	return &Descriptor{Path: ListPath(item), Shape: List{Item: item}}
}

func ArrayOf(item string, n int) *Descriptor {
	return &Descriptor{Path: ArrayPath(item, n), Shape: Array{Item: item, Len: n}}
}

func MapOf(key, value string) *Descriptor {
	return &Descriptor{Path: MapPath(key, value), Shape: Map{Key: key, Value: value}}
}

// Ensure registers desc unless its path is already taken, and returns the
// registered descriptor either way.
func (r *Registry) Ensure(desc *Descriptor) *Descriptor {
	if desc.ShortName == "" {
		desc.ShortName = ShortPath(desc.Path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[desc.Path]; ok {
		return existing
	}
	r.insertLocked(desc)
	return desc
}

// ParseScalar converts a scalar node into the Go value of a builtin primitive.
func ParseScalar(primitive string, node *yaml.Node) (any, error) {
	if node == nil || node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrShapeMismatch, primitive, nodeKind(node))
	}
	v := node.Value
	switch primitive {
	case PathBool:
		return strconv.ParseBool(v)
	case PathInt:
		n, err := strconv.ParseInt(v, 0, strconv.IntSize)
		return int(n), err
	case PathInt8:
		n, err := strconv.ParseInt(v, 0, 8)
		return int8(n), err
	case PathInt16:
		n, err := strconv.ParseInt(v, 0, 16)
		return int16(n), err
	case PathInt32:
		n, err := strconv.ParseInt(v, 0, 32)
		return int32(n), err
	case PathInt64:
		return strconv.ParseInt(v, 0, 64)
	case PathUint:
		n, err := strconv.ParseUint(v, 0, strconv.IntSize)
		return uint(n), err
	case PathUint8:
		n, err := strconv.ParseUint(v, 0, 8)
		return uint8(n), err
	case PathUint16:
		n, err := strconv.ParseUint(v, 0, 16)
		return uint16(n), err
	case PathUint32:
		n, err := strconv.ParseUint(v, 0, 32)
		return uint32(n), err
	case PathUint64:
		return strconv.ParseUint(v, 0, 64)
	case PathFloat32:
		f, err := strconv.ParseFloat(v, 32)
		return float32(f), err
	case PathFloat64:
		return strconv.ParseFloat(v, 64)
	case PathString:
		if isNull(node) {
			return nil, fmt.Errorf("%w: expected string, got null", ErrShapeMismatch)
		}
		return v, nil
	case PathChar:
		if utf8.RuneCountInString(v) != 1 {
			return nil, fmt.Errorf("%w: expected a single character, got %q", ErrShapeMismatch, v)
		}
		r, _ := utf8.DecodeRuneInString(v)
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoParser, primitive)
	}
}

func isNull(node *yaml.Node) bool {
	if node == nil || node.Kind == 0 {
		return true
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func nodeKind(node *yaml.Node) string {
	if isNull(node) {
		return "null"
	}
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
