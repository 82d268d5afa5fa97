package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parseNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &n))
	return &n
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.Ensure(OptionOf(PathString))
	r.Ensure(ListOf("game.Speed"))
	r.Ensure(ArrayOf(PathInt, 2))
	r.Ensure(MapOf(PathString, PathInt))

	require.NoError(t, r.Register(&Descriptor{
		Path:  "game.Speed",
		Shape: Struct{Fields: []Field{{Name: "value", Type: PathFloat32}}},
	}))
	require.NoError(t, r.Register(&Descriptor{
		Path: "game.Label",
		Shape: Struct{Fields: []Field{
			{Name: "a", Type: PathUint32},
			{Name: "b", Type: OptionPath(PathString)},
		}},
	}))
	require.NoError(t, r.Register(&Descriptor{
		Path: "game.BlueprintKind",
		Shape: Enum{Variants: []Variant{
			UnitVariant("Object"), UnitVariant("Collection"), UnitVariant("Scene"),
		}},
	}))
	require.NoError(t, r.Register(&Descriptor{
		Path: "game.Shape",
		Shape: Enum{Variants: []Variant{
			UnitVariant("Empty"),
			TupleVariant("Circle", PathFloat32),
			TupleVariant("Segment", PathFloat32, PathFloat32),
			StructVariant("Rect", Field{Name: "w", Type: PathFloat32}, Field{Name: "h", Type: PathFloat32}),
		}},
	}))
	require.NoError(t, r.Register(&Descriptor{Path: "game.Meters", Shape: TupleStruct{Fields: []string{PathFloat32}}}))
	require.NoError(t, r.Register(&Descriptor{Path: "game.Pair", Shape: Tuple{Fields: []string{PathInt, PathString}}}))
	return r
}

func TestDecodeStruct(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath("game.Speed", parseNode(t, "{value: 1.5}"))
	require.NoError(t, err)
	ds, ok := v.(*DynamicStruct)
	require.True(t, ok)
	assert.Equal(t, "game.Speed", ds.TypePath)
	got, ok := ds.Get("value")
	require.True(t, ok)
	assert.Equal(t, float32(1.5), got)
}

func TestDecodeStructFieldErrors(t *testing.T) {
	r := testRegistry(t)

	_, err := r.DecodePath("game.Speed", parseNode(t, "{}"))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = r.DecodePath("game.Speed", parseNode(t, "{value: 1, extra: 2}"))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = r.DecodePath("game.Speed", parseNode(t, "[1]"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "game.Speed", de.TypePath)
}

func TestDecodeOptionalField(t *testing.T) {
	r := testRegistry(t)

	cases := map[string]any{
		"{a: 3}":                nil,
		"{a: 3, b: null}":       nil,
		"{a: 3, b: None}":       nil,
		"{a: 3, b: {None: ~}}":  nil,
		"{a: 3, b: {Some: hi}}": "hi",
		"{a: 3, b: hi}":         "hi",
		"{a: 3, b: 'None'}":     "None",
	}
	for src, want := range cases {
		v, err := r.DecodePath("game.Label", parseNode(t, src))
		require.NoError(t, err, src)
		ds := v.(*DynamicStruct)
		a, _ := ds.Get("a")
		assert.Equal(t, uint32(3), a, src)
		b, present := ds.Get("b")
		assert.True(t, present, src)
		assert.Equal(t, want, b, src)
	}

	_, err := r.DecodePath("game.Label", parseNode(t, "{b: hi}"))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeSimpleEnum(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath("game.BlueprintKind", parseNode(t, "Collection"))
	require.NoError(t, err)
	e := v.(*DynamicEnum)
	assert.Equal(t, "Collection", e.Variant)
	assert.Equal(t, VariantUnit, e.Kind)

	_, err = r.DecodePath("game.BlueprintKind", parseNode(t, "Prefab"))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestDecodeDataEnum(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath("game.Shape", parseNode(t, "{Circle: 2}"))
	require.NoError(t, err)
	e := v.(*DynamicEnum)
	assert.Equal(t, "Circle", e.Variant)
	assert.Equal(t, []any{float32(2)}, e.Items)

	v, err = r.DecodePath("game.Shape", parseNode(t, "{Segment: [1, 4]}"))
	require.NoError(t, err)
	assert.Equal(t, []any{float32(1), float32(4)}, v.(*DynamicEnum).Items)

	v, err = r.DecodePath("game.Shape", parseNode(t, "{Rect: {w: 1, h: 2}}"))
	require.NoError(t, err)
	e = v.(*DynamicEnum)
	h, _ := e.Get("h")
	assert.Equal(t, float32(2), h)

	v, err = r.DecodePath("game.Shape", parseNode(t, "Empty"))
	require.NoError(t, err)
	assert.Equal(t, "Empty", v.(*DynamicEnum).Variant)

	_, err = r.DecodePath("game.Shape", parseNode(t, "Circle"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = r.DecodePath("game.Shape", parseNode(t, "{Circle: 1, Rect: {w: 1, h: 1}}"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = r.DecodePath("game.Shape", parseNode(t, "{Segment: [1]}"))
	assert.ErrorIs(t, err, ErrLength)
}

func TestDecodeNewtypeAcceptsBareAndWrapped(t *testing.T) {
	r := testRegistry(t)

	for _, src := range []string{"3", "[3]"} {
		v, err := r.DecodePath("game.Meters", parseNode(t, src))
		require.NoError(t, err, src)
		assert.Equal(t, []any{float32(3)}, v.(*DynamicTuple).Items, src)
	}
}

func TestDecodeTuple(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath("game.Pair", parseNode(t, "[7, seven]"))
	require.NoError(t, err)
	assert.Equal(t, []any{7, "seven"}, v.(*DynamicTuple).Items)

	_, err = r.DecodePath("game.Pair", parseNode(t, "[7]"))
	assert.ErrorIs(t, err, ErrLength)
}

func TestDecodeContainers(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath(ArrayPath(PathInt, 2), parseNode(t, "[1, 0x10]"))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 16}, v)

	_, err = r.DecodePath(ArrayPath(PathInt, 2), parseNode(t, "[1, 2, 3]"))
	assert.ErrorIs(t, err, ErrLength)

	v, err = r.DecodePath(MapPath(PathString, PathInt), parseNode(t, "{b: 2, a: 1}"))
	require.NoError(t, err)
	m := v.(*DynamicMap)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, MapEntry{Key: "b", Value: 2}, m.Entries[0])
	assert.Equal(t, MapEntry{Key: "a", Value: 1}, m.Entries[1])

	v, err = r.DecodePath(ListPath("game.Speed"), parseNode(t, "[]"))
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestDecodeIsAtomic(t *testing.T) {
	r := testRegistry(t)

	v, err := r.DecodePath(ListPath("game.Speed"), parseNode(t, "[{value: 1}, {value: fast}]"))
	assert.Nil(t, v)
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "[1].value", de.Path)
	assert.Equal(t, PathFloat32, de.TypePath)
}

func TestDecodeConstruct(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&Descriptor{
		Path:  "game.Health",
		Shape: Struct{Fields: []Field{{Name: "hp", Type: PathInt}}},
		Construct: func(dynamic any) (any, error) {
			hp, _ := dynamic.(*DynamicStruct).Get("hp")
			if hp.(int) < 0 {
				return nil, errors.New("negative health")
			}
			return hp.(int) * 10, nil
		},
	}))

	v, err := r.DecodePath("game.Health", parseNode(t, "{hp: 4}"))
	require.NoError(t, err)
	assert.Equal(t, 40, v)

	_, err = r.DecodePath("game.Health", parseNode(t, "{hp: -1}"))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "game.Health", de.TypePath)
}

func TestParseScalar(t *testing.T) {
	v, err := ParseScalar(PathChar, parseNode(t, "x").Content[0])
	require.NoError(t, err)
	assert.Equal(t, 'x', v)

	_, err = ParseScalar(PathChar, parseNode(t, "xy").Content[0])
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = ParseScalar(PathUint8, parseNode(t, "300").Content[0])
	assert.Error(t, err)

	_, err = ParseScalar(PathString, parseNode(t, "null").Content[0])
	assert.ErrorIs(t, err, ErrShapeMismatch)

	v, err = ParseScalar(PathBool, parseNode(t, "true").Content[0])
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestOpaqueWithoutParser(t *testing.T) {
	r := NewEmpty()
	require.NoError(t, r.Register(opaque("x.Handle")))
	_, err := r.DecodePath("x.Handle", parseNode(t, "1"))
	assert.ErrorIs(t, err, ErrNoParser)
}
