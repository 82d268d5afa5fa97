package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
)

var (
	ErrDuplicateSystem = errors.New("system already registered")
	ErrAlreadyStarted  = errors.New("startup systems already ran")
)

// Manager runs systems phase by phase, in registration order within a phase.
// A failing system is logged and does not stop the ones after it.
type Manager struct {
	mu      sync.Mutex
	systems []System
	metrics map[string]*Metrics
	started bool
	logger  log.Log
}

func NewManager(logger log.Log) *Manager {
	return &Manager{
		metrics: make(map[string]*Metrics),
		logger:  logger.With(log.String("component", "system")),
	}
}

func (m *Manager) Register(s System) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.metrics[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Name())
	}
	m.systems = append(m.systems, s)
	m.metrics[s.Name()] = &Metrics{}
	return nil
}

// Startup runs the startup phase. It can only run once.
func (m *Manager) Startup(ctx context.Context, world *scene.World) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()
	return m.runPhase(ctx, PhaseStartup, world)
}

// Update runs one tick: the extras phase, then the post phase.
func (m *Manager) Update(ctx context.Context, world *scene.World) error {
	var all error
	for _, phase := range updatePhases {
		if err := m.runPhase(ctx, phase, world); err != nil {
			all = errors.Join(all, err)
		}
		if ctx.Err() != nil {
			return errors.Join(all, ctx.Err())
		}
	}
	return all
}

func (m *Manager) runPhase(ctx context.Context, phase Phase, world *scene.World) error {
	var all error
	for _, s := range m.phaseSystems(phase) {
		if err := ctx.Err(); err != nil {
			return errors.Join(all, err)
		}
		start := time.Now()
		err := s.Run(ctx, world)
		m.record(s.Name(), time.Since(start), err)
		if err != nil {
			m.logger.Error("system failed",
				log.String("system", s.Name()),
				log.String("phase", phase.String()),
				log.Error(err),
			)
			all = errors.Join(all, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return all
}

func (m *Manager) phaseSystems(phase Phase) []System {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []System
	for _, s := range m.systems {
		if s.Phase() == phase {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) record(name string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	met := m.metrics[name]
	met.ExecutionCount++
	met.TotalExecutionTime += d
	if err != nil {
		met.ErrorCount++
		met.LastError = err
	}
}

// ExecutionOrder lists system names in the order an update runs them,
// startup systems first.
func (m *Manager) ExecutionOrder() []string {
	var out []string
	for _, phase := range append([]Phase{PhaseStartup}, updatePhases...) {
		for _, s := range m.phaseSystems(phase) {
			out = append(out, s.Name())
		}
	}
	return out
}

func (m *Manager) SystemMetrics(name string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	met, ok := m.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *met, true
}
