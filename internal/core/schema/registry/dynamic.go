package registry

// Dynamic values are what the decoder produces for types that were registered
// without a constructor. They keep the canonical path so callers can still
// tell them apart.

type FieldValue struct {
	Name  string
	Value any
}

type DynamicStruct struct {
	TypePath string
	Fields   []FieldValue
}

// Get returns the value of the named field.
func (s *DynamicStruct) Get(name string) (any, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

type DynamicEnum struct {
	TypePath string
	Variant  string
	Kind     VariantKind
	Items    []any
	Fields   []FieldValue
}

// Get returns a field of a struct variant.
func (e *DynamicEnum) Get(name string) (any, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// DynamicTuple backs both Tuple and TupleStruct shapes.
type DynamicTuple struct {
	TypePath string
	Items    []any
}

type MapEntry struct {
	Key   any
	Value any
}

// DynamicMap keeps entries in authored order.
type DynamicMap struct {
	TypePath string
	Entries  []MapEntry
}
