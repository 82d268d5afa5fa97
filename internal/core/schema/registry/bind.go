package registry

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// TypePather lets a Go type pick its own canonical path instead of
// "<import path>.<name>".
type TypePather interface {
	TypePath() string
}

// Varianter marks a named string type as a unit-only enum.
type Varianter interface {
	Variants() []string
}

type BindOption func(*bindConfig)

type bindConfig struct {
	path      string
	component bool
	resource  bool
}

// WithPath overrides the canonical path of the bound type.
func WithPath(path string) BindOption {
	return func(c *bindConfig) { c.path = path }
}

func AsComponent() BindOption {
	return func(c *bindConfig) { c.component = true }
}

func AsResource() BindOption {
	return func(c *bindConfig) { c.resource = true }
}

// RegisterType derives a descriptor from the Go type T and registers it along
// with every type it references. Struct fields are named by their `sparrow`
// tag or, without one, by the snake_case form of the Go field name. Pointers
// become Option[T], slices lists, arrays fixed arrays and maps maps.
func RegisterType[T any](r *Registry, opts ...BindOption) (*Descriptor, error) {
	var cfg bindConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	b := binder{reg: r, inProgress: make(map[reflect.Type]string)}
	path, err := b.bind(t, cfg.path)
	if err != nil {
		return nil, err
	}
	return r.setFlags(path, cfg.component, cfg.resource)
}

func RegisterComponent[T any](r *Registry, opts ...BindOption) (*Descriptor, error) {
	return RegisterType[T](r, append(opts, AsComponent())...)
}

func RegisterResource[T any](r *Registry, opts ...BindOption) (*Descriptor, error) {
	return RegisterType[T](r, append(opts, AsResource())...)
}

func (r *Registry) setFlags(path string, component, resource bool) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, path)
	}
	desc.IsComponent = desc.IsComponent || component
	desc.IsResource = desc.IsResource || resource
	return desc, nil
}

type binder struct {
	reg        *Registry
	inProgress map[reflect.Type]string
}

func (b *binder) bind(t reflect.Type, override string) (string, error) {
	path := override
	if path == "" {
		path = goTypePath(t)
	}
	if path == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if _, ok := b.reg.LookupByPath(path); ok {
		return path, nil
	}
	if p, ok := b.inProgress[t]; ok {
		return p, nil
	}

	named := t.Name() != "" && t.PkgPath() != ""
	if !named {
		return path, b.bindUnnamed(t, path)
	}

	b.inProgress[t] = path
	defer delete(b.inProgress, t)

	desc := &Descriptor{Path: path}
	switch t.Kind() {
	case reflect.Struct:
		shape, err := b.structShape(t)
		if err != nil {
			return "", err
		}
		desc.Shape = shape
		desc.Construct = structConstructor(t, shape)
	case reflect.Slice, reflect.Array, reflect.Map:
		shape, err := b.containerShape(t)
		if err != nil {
			return "", err
		}
		desc.Shape = shape
		desc.Construct = assignConstructor(t)
	case reflect.String:
		if vs, ok := reflect.Zero(t).Interface().(Varianter); ok {
			variants := make([]Variant, 0, len(vs.Variants()))
			for _, name := range vs.Variants() {
				variants = append(variants, UnitVariant(name))
			}
			desc.Shape = Enum{Variants: variants}
			desc.Construct = assignConstructor(t)
			break
		}
		fallthrough
	default:
		prim := basicName(t.Kind())
		if prim == "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		desc.Shape = Opaque{Primitive: prim}
		desc.Parse = func(node *yaml.Node) (any, error) {
			v, err := ParseScalar(prim, node)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		}
	}

	if err := b.reg.Register(desc); err != nil {
		return "", err
	}
	return path, nil
}

func (b *binder) bindUnnamed(t reflect.Type, path string) error {
	switch t.Kind() {
	case reflect.Ptr:
		inner, err := b.bind(t.Elem(), "")
		if err != nil {
			return err
		}
		b.reg.Ensure(OptionOf(inner))
	case reflect.Slice, reflect.Array, reflect.Map:
		shape, err := b.containerShape(t)
		if err != nil {
			return err
		}
		b.reg.Ensure(&Descriptor{Path: path, Shape: shape})
	default:
		prim := basicName(t.Kind())
		if prim == "" || prim != path {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		b.reg.Ensure(PrimitiveOf(prim))
	}
	return nil
}

func (b *binder) structShape(t reflect.Type) (Struct, error) {
	var shape Struct
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("sparrow")
		if name == "-" {
			continue
		}
		if name == "" {
			name = snakeCase(f.Name)
		}
		ftype, err := b.bind(f.Type, "")
		if err != nil {
			return Struct{}, fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
		}
		shape.Fields = append(shape.Fields, Field{Name: name, Type: ftype})
	}
	return shape, nil
}

func (b *binder) containerShape(t reflect.Type) (Shape, error) {
	elem, err := b.bind(t.Elem(), "")
	if err != nil {
		return nil, err
	}
	switch t.Kind() {
	case reflect.Slice:
		return List{Item: elem}, nil
	case reflect.Array:
		return Array{Item: elem, Len: t.Len()}, nil
	default:
		key, err := b.bind(t.Key(), "")
		if err != nil {
			return nil, err
		}
		return Map{Key: key, Value: elem}, nil
	}
}

func structConstructor(t reflect.Type, shape Struct) ConstructFunc {
	index := make(map[string]int, len(shape.Fields))
	fi := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("sparrow") == "-" {
			continue
		}
		index[shape.Fields[fi].Name] = i
		fi++
	}

	return func(dynamic any) (any, error) {
		ds, ok := dynamic.(*DynamicStruct)
		if !ok {
			return nil, fmt.Errorf("%w: expected struct value for %s, got %T", ErrShapeMismatch, t, dynamic)
		}
		out := reflect.New(t).Elem()
		for _, fv := range ds.Fields {
			i, ok := index[fv.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownField, fv.Name)
			}
			if err := assign(out.Field(i), fv.Value); err != nil {
				return nil, fmt.Errorf("field %s: %w", fv.Name, err)
			}
		}
		return out.Interface(), nil
	}
}

func assignConstructor(t reflect.Type) ConstructFunc {
	return func(dynamic any) (any, error) {
		out := reflect.New(t).Elem()
		if err := assign(out, dynamic); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}
}

// assign stores a decoded value into dst, converting dynamic containers into
// the concrete Go container types.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			break
		}
		s := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(s.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(s)
		return nil
	case reflect.Array:
		items, ok := v.([]any)
		if !ok {
			break
		}
		if len(items) != dst.Len() {
			return fmt.Errorf("%w: want %d, got %d", ErrLength, dst.Len(), len(items))
		}
		for i, item := range items {
			if err := assign(dst.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case reflect.Map:
		m, ok := v.(*DynamicMap)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(m.Entries))
		for _, e := range m.Entries {
			k := reflect.New(dst.Type().Key()).Elem()
			if err := assign(k, e.Key); err != nil {
				return err
			}
			val := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(val, e.Value); err != nil {
				return err
			}
			out.SetMapIndex(k, val)
		}
		dst.Set(out)
		return nil
	case reflect.String:
		if e, ok := v.(*DynamicEnum); ok {
			dst.SetString(e.Variant)
			return nil
		}
	}

	if sameClass(src.Kind(), dst.Kind()) && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("%w: cannot assign %T to %s", ErrShapeMismatch, v, dst.Type())
}

func sameClass(a, b reflect.Kind) bool {
	return kindClass(a) != 0 && kindClass(a) == kindClass(b)
}

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Bool:
		return 1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 2
	case reflect.String:
		return 3
	default:
		return 0
	}
}

func goTypePath(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		inner := goTypePath(t.Elem())
		if inner == "" {
			return ""
		}
		return OptionPath(inner)
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return ""
	}

	if tp, ok := reflect.Zero(t).Interface().(TypePather); ok {
		return tp.TypePath()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Slice:
		if item := goTypePath(t.Elem()); item != "" {
			return ListPath(item)
		}
	case reflect.Array:
		if item := goTypePath(t.Elem()); item != "" {
			return ArrayPath(item, t.Len())
		}
	case reflect.Map:
		key, value := goTypePath(t.Key()), goTypePath(t.Elem())
		if key != "" && value != "" {
			return MapPath(key, value)
		}
	default:
		return basicName(t.Kind())
	}
	return ""
}

func basicName(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return PathBool
	case reflect.Int:
		return PathInt
	case reflect.Int8:
		return PathInt8
	case reflect.Int16:
		return PathInt16
	case reflect.Int32:
		return PathInt32
	case reflect.Int64:
		return PathInt64
	case reflect.Uint:
		return PathUint
	case reflect.Uint8:
		return PathUint8
	case reflect.Uint16:
		return PathUint16
	case reflect.Uint32:
		return PathUint32
	case reflect.Uint64:
		return PathUint64
	case reflect.Float32:
		return PathFloat32
	case reflect.Float64:
		return PathFloat64
	case reflect.String:
		return PathString
	default:
		return ""
	}
}

func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
