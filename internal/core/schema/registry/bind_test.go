package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testKind string

func (testKind) Variants() []string { return []string{"Object", "Collection", "Scene"} }

type testMeters float64

type testRef uint64

func (testRef) TypePath() string { return "test::Ref" }

type testStats struct {
	Speed  float32
	MaxHP  *int `sparrow:"max_hp"`
	Tags   []string
	Kind   testKind
	Slots  [2]uint8
	Bag    map[string]int
	Reach  testMeters
	Target testRef
	Skip   int `sparrow:"-"`
	hidden int
}

type testBroken struct {
	Callback func()
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Speed":    "speed",
		"MaxHP":    "max_hp",
		"HTTPPort": "http_port",
		"walkTo":   "walk_to",
		"A":        "a",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestRegisterTypeDerivesShape(t *testing.T) {
	r := New()
	desc, err := RegisterComponent[testStats](r)
	require.NoError(t, err)

	assert.Equal(t, reflect.TypeOf(testStats{}).PkgPath()+".testStats", desc.Path)
	assert.Equal(t, "testStats", desc.ShortName)
	assert.True(t, desc.IsComponent)
	assert.False(t, desc.IsResource)

	s, ok := desc.Shape.(Struct)
	require.True(t, ok)
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"speed", "max_hp", "tags", "kind", "slots", "bag", "reach", "target"}, names)
	assert.Equal(t, OptionPath(PathInt), s.Fields[1].Type)
	assert.True(t, s.Fields[1].Optional())
	assert.Equal(t, ListPath(PathString), s.Fields[2].Type)
	assert.Equal(t, ArrayPath(PathUint8, 2), s.Fields[4].Type)
	assert.Equal(t, MapPath(PathString, PathInt), s.Fields[5].Type)
	assert.Equal(t, "test::Ref", s.Fields[7].Type)

	kind, ok := r.LookupByShortName("testKind")
	require.True(t, ok)
	assert.True(t, kind.Shape.(Enum).Simple())

	ref, ok := r.LookupByShortName("Ref")
	require.True(t, ok)
	assert.Equal(t, Opaque{Primitive: PathUint64}, ref.Shape)
}

func TestRegisterTypeDecodesIntoGoValue(t *testing.T) {
	r := New()
	desc, err := RegisterType[testStats](r)
	require.NoError(t, err)

	src := `
speed: 2.5
max_hp: 10
tags: [a, b]
kind: Scene
slots: [1, 2]
bag: {gold: 3}
reach: 1.25
target: 9
`
	v, err := r.Decode(desc, parseNode(t, src))
	require.NoError(t, err)
	stats, ok := v.(testStats)
	require.True(t, ok)

	assert.Equal(t, float32(2.5), stats.Speed)
	require.NotNil(t, stats.MaxHP)
	assert.Equal(t, 10, *stats.MaxHP)
	assert.Equal(t, []string{"a", "b"}, stats.Tags)
	assert.Equal(t, testKind("Scene"), stats.Kind)
	assert.Equal(t, [2]uint8{1, 2}, stats.Slots)
	assert.Equal(t, map[string]int{"gold": 3}, stats.Bag)
	assert.Equal(t, testMeters(1.25), stats.Reach)
	assert.Equal(t, testRef(9), stats.Target)
}

func TestRegisterTypeOptionalPointerLeftNil(t *testing.T) {
	r := New()
	desc, err := RegisterType[testStats](r)
	require.NoError(t, err)

	v, err := r.Decode(desc, parseNode(t, "{speed: 1, tags: [], kind: Object, slots: [0, 0], bag: {}, reach: 0, target: 0}"))
	require.NoError(t, err)
	stats := v.(testStats)
	assert.Nil(t, stats.MaxHP)
	assert.Empty(t, stats.Tags)

	_, err = r.Decode(desc, parseNode(t, "{speed: 1, tags: [], kind: Prefab, slots: [0, 0], bag: {}, reach: 0, target: 0}"))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestRegisterTypeTwiceKeepsDescriptor(t *testing.T) {
	r := New()
	first, err := RegisterType[testStats](r)
	require.NoError(t, err)
	n := r.Len()

	second, err := RegisterResource[testStats](r)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, second.IsResource)
	assert.Equal(t, n, r.Len())
}

func TestRegisterTypeWithPath(t *testing.T) {
	r := New()
	desc, err := RegisterType[testMeters](r, WithPath("game::Meters"))
	require.NoError(t, err)
	assert.Equal(t, "game::Meters", desc.Path)
	assert.Equal(t, "Meters", desc.ShortName)
}

func TestRegisterTypeUnsupported(t *testing.T) {
	r := New()
	_, err := RegisterType[testBroken](r)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
