package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sparrow/internal/core/events/bus"
)

func TestExportAndBusCounters(t *testing.T) {
	m := New()
	m.ObserveExport(nil)
	m.ObserveExport(errors.New("disk full"))
	m.ObserveExport(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Exports.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("error")))

	b := bus.New()
	b.AddObserver(m)
	_, err := b.Subscribe("extras.injected", func(bus.Event) error { return nil })
	require.NoError(t, err)
	require.NoError(t, b.Publish(bus.NewEvent("extras.injected", "test", nil, nil)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusEvents.WithLabelValues("extras.injected", "ok")))
}

func TestHandlerServesResolverCounters(t *testing.T) {
	m := New()
	var resolved, unresolved uint64 = 3, 1
	m.WatchResolver(func() uint64 { return resolved }, func() uint64 { return unresolved })
	m.ObserveTick(2 * time.Millisecond)
	m.RegistryTypes.Set(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "sparrow_resolver_resolved_total 3"), text)
	assert.True(t, strings.Contains(text, "sparrow_resolver_unresolved_total 1"))
	assert.True(t, strings.Contains(text, "sparrow_registry_types 42"))
	assert.True(t, strings.Contains(text, "sparrow_inject_tick_duration_seconds_count 1"))
}
