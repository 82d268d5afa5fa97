package components

import (
	"fmt"

	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

// ShapePath is the canonical path of Shape.
const ShapePath = "github.com/zeusync/sparrow/internal/components.Shape"

// Shape is a collider outline. Exactly one of the concrete types below.
type Shape interface {
	shape()
}

type Empty struct{}

type Circle struct {
	Radius float32
}

type Rect struct {
	Width  float32
	Height float32
}

func (Empty) shape()  {}
func (Circle) shape() {}
func (Rect) shape()   {}

// ShapeDescriptor describes Shape as a data enum. Reflection cannot derive
// variants carrying data, so the descriptor is written out.
func ShapeDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		Path: ShapePath,
		Shape: registry.Enum{Variants: []registry.Variant{
			registry.UnitVariant("Empty"),
			registry.TupleVariant("Circle", registry.PathFloat32),
			registry.StructVariant("Rect",
				registry.Field{Name: "width", Type: registry.PathFloat32},
				registry.Field{Name: "height", Type: registry.PathFloat32},
			),
		}},
		IsComponent: true,
		Construct:   constructShape,
	}
}

func constructShape(dynamic any) (any, error) {
	e, ok := dynamic.(*registry.DynamicEnum)
	if !ok {
		return nil, fmt.Errorf("%w: expected enum value, got %T", registry.ErrShapeMismatch, dynamic)
	}
	switch e.Variant {
	case "Empty":
		return Empty{}, nil
	case "Circle":
		r, _ := e.Items[0].(float32)
		return Circle{Radius: r}, nil
	case "Rect":
		w, _ := e.Get("width")
		h, _ := e.Get("height")
		width, _ := w.(float32)
		height, _ := h.(float32)
		return Rect{Width: width, Height: height}, nil
	}
	return nil, fmt.Errorf("%w: %s", registry.ErrUnknownVariant, e.Variant)
}
