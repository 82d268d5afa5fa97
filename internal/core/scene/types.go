package scene

import (
	"errors"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// EntityTypePath is the canonical path of node references inside metadata.
// It keeps the name used by the authoring tools.
const EntityTypePath = "bevy_ecs::entity::Entity"

// NodeID identifies a node inside a World.
type NodeID uint64

// Placeholder is the reference that could not be resolved.
const Placeholder NodeID = math.MaxUint64

func (NodeID) TypePath() string { return EntityTypePath }

func (id NodeID) String() string {
	if id == Placeholder {
		return "placeholder"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// InstanceID identifies one spawned copy of authored scene content.
type InstanceID uuid.UUID

// NewInstanceID returns a random instance identifier.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.New())
}

func (id InstanceID) String() string {
	return uuid.UUID(id).String()
}

// Level is where on the imported asset a metadata blob was authored.
type Level uint8

const (
	LevelNode Level = iota
	LevelScene
	LevelMesh
	LevelMaterial
)

// Levels lists every metadata level in processing order.
var Levels = []Level{LevelNode, LevelScene, LevelMesh, LevelMaterial}

func (l Level) String() string {
	switch l {
	case LevelNode:
		return "node"
	case LevelScene:
		return "scene"
	case LevelMesh:
		return "mesh"
	case LevelMaterial:
		return "material"
	default:
		return "unknown"
	}
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, errors.New("unknown metadata level: " + s)
}

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrCycle        = errors.New("reparenting would create a cycle")
)
