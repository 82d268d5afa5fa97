package extras

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

type speed struct {
	Value float32
}

type health struct {
	Current int
	Max     int
}

type kind string

func (kind) Variants() []string { return []string{"Object", "Collection", "Scene"} }

type settings struct {
	Gravity float32
}

func newParser(t *testing.T, opts Options) (*Parser, *registry.Registry, *observer.ObservedLogs) {
	t.Helper()
	reg := registry.New()
	_, err := registry.RegisterComponent[speed](reg, registry.WithPath("game::Speed"))
	require.NoError(t, err)
	_, err = registry.RegisterComponent[health](reg, registry.WithPath("game::Health"))
	require.NoError(t, err)
	_, err = registry.RegisterComponent[kind](reg, registry.WithPath("blueprints::BlueprintKind"))
	require.NoError(t, err)
	_, err = registry.RegisterResource[settings](reg, registry.WithPath("game::Settings"))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	return NewParser(reg, log.NewWithCore(core), opts), reg, logs
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"component: speed":     "Speed",
		"Speed":                "Speed",
		"  component: health ": "Health",
		"blueprintKind":        "BlueprintKind",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayName(in), in)
	}
}

func TestParseWellFormedBlob(t *testing.T) {
	p, _, logs := newParser(t, Options{})

	blob := `{
    "component: speed": "{value: 2.5}",
    "bevy_components": "{\"game::Health\": \"{current: 5, max: 10}\", \"blueprints::BlueprintKind\": \"Scene\"}",
    "Health": {current: 1, max: 2},
    "BlueprintKind": Collection
  }`
	report, err := p.Parse(blob, "Door")
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
	assert.Zero(t, warnings(logs))

	require.Len(t, report.Components, 5)
	got := make([]any, 0, len(report.Components))
	for _, c := range report.Components {
		got = append(got, c.Instance)
	}
	assert.Equal(t, []any{
		speed{Value: 2.5},
		health{Current: 1, Max: 2},
		kind("Collection"),
		health{Current: 5, Max: 10},
		kind("Scene"),
	}, got)

	assert.Equal(t, ChannelPrimary, report.Components[0].Channel)
	assert.Equal(t, "game::Speed", report.Components[0].Descriptor.Path)
	assert.Equal(t, ChannelExtended, report.Components[3].Channel)
	assert.Equal(t, "game::Health", report.Components[3].Key)
}

func TestParseInlineExtendedChannel(t *testing.T) {
	p, _, _ := newParser(t, Options{})
	report, err := p.Parse("bevy_components:\n  game::Speed: {value: 1}\n", "n")
	require.NoError(t, err)
	require.Len(t, report.Components, 1)
	assert.Equal(t, speed{Value: 1}, report.Components[0].Instance)
}

func TestParseUnregisteredTypes(t *testing.T) {
	p, _, logs := newParser(t, Options{Ignore: []string{"Components_meta"}})

	blob := `{"MyComponents_meta": "{}", "Wings": "{}", "bevy_components": {"vendor::Components_meta": {}, "vendor::Jetpack": {}}}`
	report, err := p.Parse(blob, "Bird")
	require.NoError(t, err)
	assert.Empty(t, report.Components)

	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, Diagnostic{Kind: UnregisteredType, Node: "Bird", Type: "Wings"}, report.Diagnostics[0])
	assert.Equal(t, Diagnostic{Kind: UnregisteredType, Node: "Bird", Type: "vendor::Jetpack"}, report.Diagnostics[1])
	assert.Equal(t, 2, warnings(logs))

	entry := logs.FilterLevelExact(zapcore.WarnLevel).All()[0]
	assert.Equal(t, "Bird", entry.ContextMap()["node"])
	assert.Equal(t, "Wings", entry.ContextMap()["type"])
}

func TestParseMalformedBlob(t *testing.T) {
	p, _, logs := newParser(t, Options{})

	for _, blob := range []string{`{"component: speed": "{value: 1}"`, "", "[1, 2]"} {
		logs.TakeAll()
		report, err := p.Parse(blob, "Broken")
		assert.ErrorIs(t, err, ErrMalformedBlob, blob)
		assert.Empty(t, report.Components, blob)
		require.Len(t, report.Diagnostics, 1, blob)
		assert.Equal(t, MalformedBlob, report.Diagnostics[0].Kind)
		assert.Equal(t, 1, warnings(logs), blob)
	}
}

func TestParseDecodeFailureIsLenient(t *testing.T) {
	p, _, _ := newParser(t, Options{})

	report, err := p.Parse(`{"Speed": "{value: fast}", "Health": "{current: 1, max: 1}", "bevy_components": {"game::Speed": "{velocity: 1}"}}`, "n")
	require.NoError(t, err)
	require.Len(t, report.Components, 1)
	assert.Equal(t, health{Current: 1, Max: 1}, report.Components[0].Instance)

	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, DecodeFailed, report.Diagnostics[0].Kind)
	assert.ErrorIs(t, report.Diagnostics[1].Err, registry.ErrUnknownField)
}

func TestParseStrictExtended(t *testing.T) {
	p, _, _ := newParser(t, Options{StrictExtended: true})

	report, err := p.Parse(`{"Health": "{current: 1, max: 1}", "bevy_components": {"game::Speed": "{velocity: 1}"}}`, "n")
	assert.ErrorIs(t, err, ErrStrictDecode)
	assert.Empty(t, report.Components)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, DecodeFailed, report.Diagnostics[0].Kind)

	report, err = p.Parse(`{"Speed": "{value: fast}", "Health": "{current: 1, max: 1}"}`, "n")
	require.NoError(t, err, "strict mode only covers the extended channel")
	assert.Len(t, report.Components, 1)
}

func TestParseMalformedExtendedKeepsPrimary(t *testing.T) {
	p, _, _ := newParser(t, Options{})

	report, err := p.Parse(`{"Speed": "{value: 3}", "bevy_components": [1, 2]}`, "n")
	require.NoError(t, err)
	require.Len(t, report.Components, 1)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, MalformedExtended, report.Diagnostics[0].Kind)
}

func TestParseNotAComponentAndFilter(t *testing.T) {
	p, _, _ := newParser(t, Options{Filter: registry.DenyList("game::Health")})

	report, err := p.Parse(`{"Settings": "{gravity: 9.8}", "Health": "{current: 1, max: 1}", "Speed": "{value: 1}"}`, "n")
	require.NoError(t, err)
	require.Len(t, report.Components, 1)
	assert.Equal(t, speed{Value: 1}, report.Components[0].Instance)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, NotAComponent, report.Diagnostics[0].Kind)
	assert.Equal(t, "game::Settings", report.Diagnostics[0].Type)
}

func TestParseDuplicateAcrossChannels(t *testing.T) {
	p, _, _ := newParser(t, Options{})

	report, err := p.Parse(`{"Speed": "{value: 1}", "bevy_components": {"game::Speed": "{value: 2}"}}`, "n")
	require.NoError(t, err)
	require.Len(t, report.Components, 2)
	assert.Equal(t, speed{Value: 1}, report.Components[0].Instance)
	assert.Equal(t, speed{Value: 2}, report.Components[1].Instance)
}
