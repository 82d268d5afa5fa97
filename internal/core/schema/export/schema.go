package export

import (
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

const (
	SchemaURI = "https://json-schema.org/draft/2020-12/schema"
	LongName  = "bevy component registry schema"
	refPrefix = "#/$defs/"
)

// Document is the whole exported file. Field order is the output order.
type Document struct {
	Schema   string                    `json:"$schema"`
	LongName string                    `json:"long_name"`
	Defs     map[string]map[string]any `json:"$defs"`
}

// fragment builds the schema of one registry entry.
func fragment(desc *registry.Descriptor) map[string]any {
	out := map[string]any{
		"type_info":    typeInfo(desc.Shape),
		"long_name":    desc.Path,
		"short_name":   desc.ShortName,
		"is_component": desc.IsComponent,
		"is_resource":  desc.IsResource,
	}

	switch s := desc.Shape.(type) {
	case registry.Struct:
		out["type"] = "object"
		out["additionalProperties"] = false
		out["properties"], out["required"] = properties(s.Fields)
	case registry.Enum:
		if s.Simple() {
			names := make([]string, 0, len(s.Variants))
			for _, v := range s.Variants {
				names = append(names, v.Name)
			}
			out["type"] = "string"
			out["oneOf"] = names
			break
		}
		variants := make([]any, 0, len(s.Variants))
		for _, v := range s.Variants {
			variants = append(variants, variant(v))
		}
		out["type"] = "object"
		out["oneOf"] = variants
	case registry.TupleStruct:
		out["type"] = "array"
		out["prefixItems"] = prefixItems(s.Fields)
		out["items"] = false
	case registry.Tuple:
		out["type"] = "array"
		out["prefixItems"] = prefixItems(s.Fields)
		out["items"] = false
	case registry.List:
		out["type"] = "array"
		out["items"] = typeRef(s.Item)
	case registry.Array:
		out["type"] = "array"
		out["items"] = typeRef(s.Item)
		out["minItems"] = s.Len
		out["maxItems"] = s.Len
	case registry.Map:
		out["type"] = "object"
		out["key_type"] = typeRef(s.Key)
		out["value_type"] = typeRef(s.Value)
	case registry.Opaque:
		out["type"] = primitiveType(s.Primitive)
	}
	return out
}

func variant(v registry.Variant) map[string]any {
	switch v.Kind {
	case registry.VariantStruct:
		props, required := properties(v.Fields)
		return map[string]any{
			"type":                 "object",
			"type_info":            "Struct",
			"long_name":            v.Name,
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
	case registry.VariantTuple:
		return map[string]any{
			"type":        "array",
			"type_info":   "Tuple",
			"long_name":   v.Name,
			"prefixItems": prefixItems(v.Items),
			"items":       false,
		}
	default:
		return map[string]any{
			"type_info": "Unit",
			"long_name": v.Name,
		}
	}
}

func properties(fields []registry.Field) (map[string]any, []string) {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = typeRef(f.Type)
		if !f.Optional() {
			required = append(required, f.Name)
		}
	}
	return props, required
}

func prefixItems(types []string) []any {
	items := make([]any, 0, len(types))
	for _, t := range types {
		items = append(items, typeRef(t))
	}
	return items
}

// typeRef is the nested {"type": {"$ref": ...}} form the authoring add-on
// reads.
func typeRef(path string) map[string]any {
	return map[string]any{"type": map[string]any{"$ref": refPrefix + path}}
}

func typeInfo(shape registry.Shape) string {
	if shape.Kind() == registry.KindOpaque {
		return "Value"
	}
	return shape.Kind().String()
}

// primitiveType maps an opaque primitive onto the add-on's JSON type names.
func primitiveType(primitive string) string {
	switch primitive {
	case "bool":
		return "boolean"
	case "u8", "u16", "u32", "u64", "u128", "usize",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "uint"
	case "i8", "i16", "i32", "i64", "i128", "isize",
		"int", "int8", "int16", "int32", "int64":
		return "int"
	case "f32", "f64", "float32", "float64":
		return "float"
	case "char", "str", "alloc::string::String", "string":
		return "string"
	default:
		return "object"
	}
}
