// Package inject runs the per-tick injection pass: every node that received
// metadata since the last tick has its blobs parsed inside the scope of its
// scene instance, and the decoded components are attached to the graph.
package inject

import (
	"time"

	"github.com/zeusync/sparrow/internal/core/events/bus"
	"github.com/zeusync/sparrow/internal/core/extras"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/observability/metrics"
	"github.com/zeusync/sparrow/internal/core/resolver"
	"github.com/zeusync/sparrow/internal/core/scene"
)

// EventInjected is published once per processed metadata blob.
const EventInjected = "extras.injected"

// AttachPolicy says where the components of one metadata level go.
type AttachPolicy uint8

const (
	AttachSelf AttachPolicy = iota
	// AttachParent attaches to the structural parent, moves the source
	// node's children up one level and removes the source node.
	AttachParent
)

// Injected is the payload of EventInjected.
type Injected struct {
	Source      scene.NodeID
	Target      scene.NodeID
	Name        string
	Level       scene.Level
	Components  []string
	Diagnostics int
}

// Summary describes one Run.
type Summary struct {
	Nodes       int
	Components  int
	Diagnostics int
	Flattened   int
	Duration    time.Duration
}

type Options struct {
	// Policies overrides the attach policy per level. Levels not listed
	// attach to the node itself.
	Policies map[scene.Level]AttachPolicy
}

// FlattenScenes returns options attaching scene-level metadata to the parent.
func FlattenScenes() Options {
	return Options{Policies: map[scene.Level]AttachPolicy{scene.LevelScene: AttachParent}}
}

type Driver struct {
	parser   *extras.Parser
	resolver *resolver.Resolver
	bus      bus.EventBus
	metrics  *metrics.Metrics
	logger   log.Log
	opts     Options
}

// NewDriver creates a driver. events and m may be nil.
func NewDriver(parser *extras.Parser, res *resolver.Resolver, events bus.EventBus, m *metrics.Metrics, logger log.Log, opts Options) *Driver {
	return &Driver{
		parser:   parser,
		resolver: res,
		bus:      events,
		metrics:  m,
		logger:   logger.With(log.String("component", "inject")),
		opts:     opts,
	}
}

// Run processes every node queued since the previous Run. A node is never
// processed twice.
func (d *Driver) Run(w *scene.World) Summary {
	start := time.Now()
	var sum Summary
	queued := w.DrainAddedExtras()
	// Flattening an instance root despawns its marker, so every queued node
	// is bound to its scope before any node is processed.
	scopes := d.scopes(w, queued)

	for _, id := range queued {
		if !w.Exists(id) || w.Processed(id) {
			continue
		}
		d.processNode(w, id, scopes, &sum)
		sum.Nodes++
	}

	sum.Duration = time.Since(start)
	if d.metrics != nil {
		d.metrics.NodesProcessed.Add(float64(sum.Nodes))
		d.metrics.ObserveTick(sum.Duration)
	}
	if sum.Nodes > 0 {
		d.logger.Debug("injection pass finished",
			log.Int("nodes", sum.Nodes),
			log.Int("components", sum.Components),
			log.Int("diagnostics", sum.Diagnostics),
			log.Duration("duration", sum.Duration),
		)
	}
	return sum
}

func (d *Driver) processNode(w *scene.World, id scene.NodeID, scopes map[scene.NodeID]resolver.Scope, sum *Summary) {
	name := w.Name(id)
	scope, scoped := scopes[id]
	scope.Node = name

	target, flatten := id, false
	if d.wantsParent(w, id) {
		if parent, ok := w.Parent(id); ok {
			target, flatten = parent, true
		} else {
			d.logger.Debug("flatten requested on a root node, attaching to itself", log.Node(name))
		}
	}

	var events []Injected
	for _, level := range scene.Levels {
		blob, ok := w.Extras(id, level)
		if !ok {
			continue
		}
		report := d.parse(blob, name, scope, scoped)
		sum.Diagnostics += len(report.Diagnostics)

		attached := make([]string, 0, len(report.Components))
		for _, c := range report.Components {
			if err := w.Insert(target, c.Descriptor.Path, c.Instance); err != nil {
				d.logger.Error("attach component", log.Node(name), log.Type(c.Descriptor.Path), log.Error(err))
				continue
			}
			attached = append(attached, c.Descriptor.Path)
			if d.metrics != nil {
				d.metrics.ComponentsInjected.WithLabelValues(c.Channel.String()).Inc()
			}
		}
		sum.Components += len(attached)
		if d.metrics != nil {
			for _, diag := range report.Diagnostics {
				d.metrics.Diagnostics.WithLabelValues(string(diag.Kind)).Inc()
			}
		}
		events = append(events, Injected{
			Source:      id,
			Target:      target,
			Name:        name,
			Level:       level,
			Components:  attached,
			Diagnostics: len(report.Diagnostics),
		})
	}
	d.publish(name, events)
	w.MarkProcessed(id)

	if flatten {
		if err := w.Reparent(id, target); err != nil {
			d.logger.Error("flatten: reparent children", log.Node(name), log.Error(err))
			return
		}
		if err := w.Despawn(id); err != nil {
			d.logger.Error("flatten: despawn", log.Node(name), log.Error(err))
			return
		}
		sum.Flattened++
	}
}

// scopes maps every node in ids that lives inside an instance to the scope of
// that instance. Scopes are built once per instance root. Nodes outside any
// instance are left out.
func (d *Driver) scopes(w *scene.World, ids []scene.NodeID) map[scene.NodeID]resolver.Scope {
	byRoot := make(map[scene.NodeID]resolver.Scope)
	out := make(map[scene.NodeID]resolver.Scope, len(ids))
	for _, id := range ids {
		root, _, ok := w.InstanceOf(id)
		if !ok {
			continue
		}
		scope, cached := byRoot[root]
		if !cached {
			var err error
			if scope, err = resolver.BuildScope(w, root); err != nil {
				d.logger.Warn("build entity scope", log.Node(w.Name(id)), log.Error(err))
				continue
			}
			byRoot[root] = scope
		}
		out[id] = scope
	}
	return out
}

func (d *Driver) wantsParent(w *scene.World, id scene.NodeID) bool {
	for level, policy := range d.opts.Policies {
		if policy != AttachParent {
			continue
		}
		if _, ok := w.Extras(id, level); ok {
			return true
		}
	}
	return false
}

// parse runs the parser with the entity scope installed around it. Blobs
// outside any instance are parsed without a scope, so their references
// resolve to the placeholder.
func (d *Driver) parse(blob, name string, scope resolver.Scope, scoped bool) extras.Report {
	if scoped {
		teardown, err := d.resolver.Install(scope)
		if err != nil {
			d.logger.Error("install entity scope", log.Node(name), log.Error(err))
			return extras.Report{}
		}
		defer func() {
			if err := teardown(); err != nil {
				d.logger.Error("tear down entity scope", log.Node(name), log.Error(err))
			}
		}()
	}
	report, err := d.parser.Parse(blob, name)
	if err != nil {
		d.logger.Debug("metadata blob rejected", log.Node(name), log.Error(err))
	}
	return report
}

func (d *Driver) publish(name string, events []Injected) {
	if d.bus == nil || len(events) == 0 {
		return
	}
	batch := make([]bus.Event, 0, len(events))
	for _, ev := range events {
		meta := map[string]any{"level": ev.Level.String()}
		batch = append(batch, bus.NewEvent(EventInjected, "inject", ev, meta))
	}
	if err := d.bus.PublishBatch(batch...); err != nil {
		d.logger.Warn("post-injection handler failed", log.Node(name), log.Error(err))
	}
}
