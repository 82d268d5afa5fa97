package system

import (
	"context"
	"time"

	"github.com/zeusync/sparrow/internal/core/scene"
)

// Phase defines when a system runs.
type Phase uint8

const (
	// PhaseStartup systems run once, before the first update.
	PhaseStartup Phase = iota
	// PhaseExtras systems turn freshly imported metadata into components.
	PhaseExtras
	// PhasePost systems run after injection in the same update.
	PhasePost
)

var updatePhases = []Phase{PhaseExtras, PhasePost}

func (p Phase) String() string {
	switch p {
	case PhaseStartup:
		return "startup"
	case PhaseExtras:
		return "extras"
	case PhasePost:
		return "post"
	default:
		return "unknown"
	}
}

// System is one unit of work scheduled by the Manager.
type System interface {
	Name() string
	Phase() Phase
	Run(ctx context.Context, world *scene.World) error
}

type funcSystem struct {
	name  string
	phase Phase
	fn    func(ctx context.Context, world *scene.World) error
}

func (s funcSystem) Name() string { return s.name }
func (s funcSystem) Phase() Phase { return s.phase }
func (s funcSystem) Run(ctx context.Context, world *scene.World) error {
	return s.fn(ctx, world)
}

// Func adapts a plain function into a System.
func Func(name string, phase Phase, fn func(ctx context.Context, world *scene.World) error) System {
	return funcSystem{name: name, phase: phase, fn: fn}
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount     uint64
	ErrorCount         uint64
	TotalExecutionTime time.Duration
	LastError          error
}
