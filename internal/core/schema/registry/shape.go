package registry

// Kind is the structural kind of a registered type.
type Kind uint8

const (
	KindStruct Kind = iota
	KindEnum
	KindTupleStruct
	KindList
	KindArray
	KindMap
	KindTuple
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "Struct"
	case KindEnum:
		return "Enum"
	case KindTupleStruct:
		return "TupleStruct"
	case KindList:
		return "List"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindTuple:
		return "Tuple"
	case KindOpaque:
		return "Opaque"
	default:
		return "Unknown"
	}
}

// Shape describes the structure of a type. The set of shapes is closed:
// Struct, Enum, TupleStruct, List, Array, Map, Tuple and Opaque.
type Shape interface {
	Kind() Kind
}

// Field is a named member referencing another registered type by canonical path.
type Field struct {
	Name string
	Type string
}

// Optional reports whether the field's type is an optional wrapper.
func (f Field) Optional() bool {
	return IsOptionPath(f.Type)
}

type Struct struct {
	Fields []Field
}

type VariantKind uint8

const (
	VariantUnit VariantKind = iota
	VariantTuple
	VariantStruct
)

// Variant is one arm of an Enum. Items is used by tuple variants and Fields by
// struct variants.
type Variant struct {
	Name   string
	Kind   VariantKind
	Items  []string
	Fields []Field
}

func UnitVariant(name string) Variant {
	return Variant{Name: name, Kind: VariantUnit}
}

func TupleVariant(name string, items ...string) Variant {
	return Variant{Name: name, Kind: VariantTuple, Items: items}
}

func StructVariant(name string, fields ...Field) Variant {
	return Variant{Name: name, Kind: VariantStruct, Fields: fields}
}

type Enum struct {
	Variants []Variant
}

// Simple reports whether every variant is a unit variant.
func (e Enum) Simple() bool {
	for _, v := range e.Variants {
		if v.Kind != VariantUnit {
			return false
		}
	}
	return true
}

func (e Enum) Variant(name string) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

type TupleStruct struct {
	Fields []string
}

type List struct {
	Item string
}

type Array struct {
	Item string
	Len  int
}

type Map struct {
	Key   string
	Value string
}

type Tuple struct {
	Fields []string
}

// Opaque is a leaf parsed directly from a scalar. Primitive names the leaf
// (bool, uint32, float32, string, Entity, ...).
type Opaque struct {
	Primitive string
}

func (Struct) Kind() Kind      { return KindStruct }
func (Enum) Kind() Kind        { return KindEnum }
func (TupleStruct) Kind() Kind { return KindTupleStruct }
func (List) Kind() Kind        { return KindList }
func (Array) Kind() Kind       { return KindArray }
func (Map) Kind() Kind         { return KindMap }
func (Tuple) Kind() Kind       { return KindTuple }
func (Opaque) Kind() Kind      { return KindOpaque }
