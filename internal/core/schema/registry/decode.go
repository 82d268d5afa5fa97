package registry

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type decoder struct {
	reg *Registry
}

func (d *decoder) lookup(path string) (*Descriptor, error) {
	desc, ok := d.reg.LookupByPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, path)
	}
	return desc, nil
}

func (d *decoder) decode(desc *Descriptor, node *yaml.Node, at string) (any, error) {
	node = unwrapNode(node)

	var (
		v   any
		err error
	)
	switch s := desc.Shape.(type) {
	case Struct:
		v, err = d.decodeStruct(desc, s, node, at)
	case Enum:
		if IsOptionPath(desc.Path) {
			v, err = d.decodeOption(s, node, at)
		} else {
			v, err = d.decodeEnum(desc, s, node, at)
		}
	case TupleStruct:
		var items []any
		items, err = d.decodeSeq(s.Fields, node, at, true)
		v = &DynamicTuple{TypePath: desc.Path, Items: items}
	case Tuple:
		var items []any
		items, err = d.decodeSeq(s.Fields, node, at, false)
		v = &DynamicTuple{TypePath: desc.Path, Items: items}
	case List:
		v, err = d.decodeList(s.Item, -1, node, at)
	case Array:
		v, err = d.decodeList(s.Item, s.Len, node, at)
	case Map:
		v, err = d.decodeMap(desc, s, node, at)
	case Opaque:
		if desc.Parse == nil {
			err = fmt.Errorf("%w: %s", ErrNoParser, desc.Path)
			break
		}
		v, err = desc.Parse(node)
	default:
		err = fmt.Errorf("%w: unknown shape %T", ErrInvalidDescriptor, desc.Shape)
	}
	if err != nil {
		return nil, wrapDecode(at, desc.Path, err)
	}

	if desc.Construct != nil {
		if v, err = desc.Construct(v); err != nil {
			return nil, wrapDecode(at, desc.Path, err)
		}
	}
	return v, nil
}

func (d *decoder) decodeStruct(desc *Descriptor, s Struct, node *yaml.Node, at string) (any, error) {
	values, err := d.decodeFields(s.Fields, node, at)
	if err != nil {
		return nil, err
	}
	return &DynamicStruct{TypePath: desc.Path, Fields: values}, nil
}

// decodeFields decodes a mapping against an ordered field list. Missing
// optional fields decode to nil; unknown keys are rejected.
func (d *decoder) decodeFields(fields []Field, node *yaml.Node, at string) ([]FieldValue, error) {
	raw := make(map[string]*yaml.Node, len(fields))
	switch {
	case isNull(node):
	case node.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if !hasField(fields, key) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
			}
			raw[key] = node.Content[i+1]
		}
	default:
		return nil, fmt.Errorf("%w: expected mapping, got %s", ErrShapeMismatch, nodeKind(node))
	}

	values := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		sub, present := raw[f.Name]
		if !present {
			if !f.Optional() {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, f.Name)
			}
			values = append(values, FieldValue{Name: f.Name})
			continue
		}
		fdesc, err := d.lookup(f.Type)
		if err != nil {
			return nil, err
		}
		v, err := d.decode(fdesc, sub, join(at, f.Name))
		if err != nil {
			return nil, err
		}
		values = append(values, FieldValue{Name: f.Name, Value: v})
	}
	return values, nil
}

func (d *decoder) decodeEnum(desc *Descriptor, e Enum, node *yaml.Node, at string) (any, error) {
	if node != nil && node.Kind == yaml.ScalarNode && !isNull(node) {
		variant, ok := e.Variant(node.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, node.Value)
		}
		if variant.Kind != VariantUnit && !(variant.Kind == VariantTuple && len(variant.Items) == 0) {
			return nil, fmt.Errorf("%w: variant %s carries data", ErrShapeMismatch, variant.Name)
		}
		return &DynamicEnum{TypePath: desc.Path, Variant: variant.Name, Kind: variant.Kind}, nil
	}

	if node == nil || node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("%w: expected variant name or single-key mapping, got %s", ErrShapeMismatch, nodeKind(node))
	}

	name := node.Content[0].Value
	body := unwrapNode(node.Content[1])
	variant, ok := e.Variant(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	vat := join(at, name)
	out := &DynamicEnum{TypePath: desc.Path, Variant: variant.Name, Kind: variant.Kind}

	switch variant.Kind {
	case VariantUnit:
		if !isNull(body) && !(body.Kind == yaml.MappingNode && len(body.Content) == 0) {
			return nil, &DecodeError{Path: vat, TypePath: desc.Path, Err: fmt.Errorf("%w: unit variant carries data", ErrShapeMismatch)}
		}
	case VariantTuple:
		items, err := d.decodeSeq(variant.Items, body, vat, true)
		if err != nil {
			return nil, err
		}
		out.Items = items
	case VariantStruct:
		fields, err := d.decodeFields(variant.Fields, body, vat)
		if err != nil {
			return nil, err
		}
		out.Fields = fields
	}
	return out, nil
}

// decodeOption maps null, None and {None: ~} to nil, {Some: v} to v and any
// other value straight onto the inner type.
func (d *decoder) decodeOption(e Enum, node *yaml.Node, at string) (any, error) {
	some, ok := e.Variant("Some")
	if !ok || len(some.Items) != 1 {
		return nil, fmt.Errorf("%w: malformed option", ErrInvalidDescriptor)
	}
	if isNull(node) || (node.Kind == yaml.ScalarNode && node.Value == "None" && node.Style == 0) {
		return nil, nil
	}
	if node.Kind == yaml.MappingNode && len(node.Content) == 2 {
		switch node.Content[0].Value {
		case "None":
			return nil, nil
		case "Some":
			node = node.Content[1]
		}
	}
	inner, err := d.lookup(some.Items[0])
	if err != nil {
		return nil, err
	}
	return d.decode(inner, node, at)
}

// decodeSeq decodes a positional sequence. With newtype set, a single-item
// shape also accepts the bare value.
func (d *decoder) decodeSeq(types []string, node *yaml.Node, at string, newtype bool) ([]any, error) {
	isSeq := node != nil && node.Kind == yaml.SequenceNode
	if newtype && len(types) == 1 {
		inner, err := d.lookup(types[0])
		if err != nil {
			return nil, err
		}
		if !isSeq || sequenceShaped(inner) {
			v, err := d.decode(inner, node, index(at, 0))
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
	}

	var elems []*yaml.Node
	switch {
	case isSeq:
		elems = node.Content
	case len(types) == 0 && isNull(node):
	default:
		return nil, fmt.Errorf("%w: expected sequence, got %s", ErrShapeMismatch, nodeKind(node))
	}
	if len(elems) != len(types) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrLength, len(types), len(elems))
	}

	items := make([]any, len(types))
	for i, t := range types {
		desc, err := d.lookup(t)
		if err != nil {
			return nil, err
		}
		if items[i], err = d.decode(desc, elems[i], index(at, i)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// decodeList decodes List (n < 0) and Array (n >= 0) shapes.
func (d *decoder) decodeList(item string, n int, node *yaml.Node, at string) ([]any, error) {
	var elems []*yaml.Node
	switch {
	case node != nil && node.Kind == yaml.SequenceNode:
		elems = node.Content
	case isNull(node) && n <= 0:
	default:
		return nil, fmt.Errorf("%w: expected sequence, got %s", ErrShapeMismatch, nodeKind(node))
	}
	if n >= 0 && len(elems) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrLength, n, len(elems))
	}

	desc, err := d.lookup(item)
	if err != nil {
		return nil, err
	}
	items := make([]any, len(elems))
	for i, elem := range elems {
		if items[i], err = d.decode(desc, elem, index(at, i)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (d *decoder) decodeMap(desc *Descriptor, m Map, node *yaml.Node, at string) (any, error) {
	out := &DynamicMap{TypePath: desc.Path}
	if isNull(node) {
		return out, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected mapping, got %s", ErrShapeMismatch, nodeKind(node))
	}

	kdesc, err := d.lookup(m.Key)
	if err != nil {
		return nil, err
	}
	vdesc, err := d.lookup(m.Value)
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		kn := node.Content[i]
		kat := join(at, kn.Value)
		k, err := d.decode(kdesc, kn, kat)
		if err != nil {
			return nil, err
		}
		v, err := d.decode(vdesc, node.Content[i+1], kat)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, MapEntry{Key: k, Value: v})
	}
	return out, nil
}

// unwrapNode skips document wrappers and follows aliases.
func unwrapNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) == 1:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode && node.Alias != nil:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

// sequenceShaped reports whether a type is itself authored as a sequence, in
// which case a newtype wrapper around it never adds a sequence level.
func sequenceShaped(desc *Descriptor) bool {
	switch s := desc.Shape.(type) {
	case List, Array, Tuple:
		return true
	case TupleStruct:
		return len(s.Fields) != 1
	}
	return false
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func join(at, name string) string {
	if at == "" {
		return name
	}
	return at + "." + name
}

func index(at string, i int) string {
	return at + "[" + strconv.Itoa(i) + "]"
}
