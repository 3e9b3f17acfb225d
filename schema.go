package autoclaude

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
)

// SchemaBuilder assembles a JSON Schema object from a struct's json tags.
// Use SchemaFrom[T]() to start one.
type SchemaBuilder struct {
	props    map[string]map[string]any
	order    []string
	required []string
}

// SchemaFrom reflects on T's exported fields. Field names come from json
// tags; Go kinds map to JSON Schema primitive types.
func SchemaFrom[T any]() *SchemaBuilder {
	sb := &SchemaBuilder{props: make(map[string]map[string]any)}
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return sb
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		sb.props[name] = map[string]any{"type": jsonType(f.Type)}
		sb.order = append(sb.order, name)
	}
	return sb
}

func jsonType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return "string"
	}
}

// Desc sets the description of a property.
func (s *SchemaBuilder) Desc(field, description string) *SchemaBuilder {
	if p, ok := s.props[field]; ok {
		p["description"] = description
	}
	return s
}

// Required marks fields as required. Unknown fields and repeats are ignored.
func (s *SchemaBuilder) Required(fields ...string) *SchemaBuilder {
	for _, f := range fields {
		if _, ok := s.props[f]; ok && !slices.Contains(s.required, f) {
			s.required = append(s.required, f)
		}
	}
	return s
}

// Build renders the schema.
func (s *SchemaBuilder) Build() json.RawMessage {
	props := make(map[string]any, len(s.props))
	for name, p := range s.props {
		props[name] = p
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(s.required) > 0 {
		schema["required"] = s.required
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}

// SchemaProperties lists the property names declared by a JSON Schema
// object, sorted. It returns nil for schemas without properties.
func SchemaProperties(schema json.RawMessage) []string {
	var doc struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(schema, &doc); err != nil || len(doc.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(doc.Properties))
	for name := range doc.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
