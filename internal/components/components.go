// Package components holds the game types that metadata can attach to scene
// nodes. Register must run after the entity resolver has been created so that
// node references bind to its descriptor.
package components

import (
	"fmt"

	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

type Speed struct {
	Value float32
}

type Health struct {
	Current int32
	Max     int32
}

// Hinge joins its node to another node of the same instance.
type Hinge struct {
	Target scene.NodeID
	Axis   [3]float32
	Limit  *float32
}

type BlueprintKind string

const (
	BlueprintObject     BlueprintKind = "Object"
	BlueprintCollection BlueprintKind = "Collection"
	BlueprintScene      BlueprintKind = "Scene"
)

func (BlueprintKind) Variants() []string {
	return []string{string(BlueprintObject), string(BlueprintCollection), string(BlueprintScene)}
}

type Tags []string

type Inventory map[string]uint32

type Spawner struct {
	Blueprint string
	Kind      BlueprintKind
	Count     uint32
	Interval  *float32 `sparrow:"interval_secs"`
	Tags      Tags
}

// GameSettings is a resource and never attaches to a node.
type GameSettings struct {
	Gravity    float32
	Difficulty string
	MaxPlayers uint8
}

func Register(reg *registry.Registry) error {
	steps := []func(*registry.Registry, ...registry.BindOption) (*registry.Descriptor, error){
		registry.RegisterComponent[Speed],
		registry.RegisterComponent[Health],
		registry.RegisterComponent[Hinge],
		registry.RegisterComponent[BlueprintKind],
		registry.RegisterComponent[Tags],
		registry.RegisterComponent[Inventory],
		registry.RegisterComponent[Spawner],
		registry.RegisterResource[GameSettings],
	}
	for _, step := range steps {
		if _, err := step(reg); err != nil {
			return err
		}
	}
	if err := reg.Register(ShapeDescriptor()); err != nil {
		return fmt.Errorf("register shape: %w", err)
	}
	return nil
}
