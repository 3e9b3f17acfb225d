package google

import (
	"encoding/json"

	"google.golang.org/genai"
)

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// convertSchema turns a JSON schema document into the subset genai.Schema
// understands. An empty or invalid document yields nil.
func convertSchema(raw json.RawMessage) *genai.Schema {
	if len(raw) == 0 {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return convertSchemaObject(doc)
}

func convertSchemaObject(doc map[string]any) *genai.Schema {
	if doc == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := doc["type"].(string); ok {
		s.Type = schemaTypes[t]
	}
	if desc, ok := doc["description"].(string); ok {
		s.Description = desc
	}
	s.Enum = stringList(doc["enum"])
	s.Required = stringList(doc["required"])

	if props, ok := doc["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if m, ok := prop.(map[string]any); ok {
				s.Properties[name] = convertSchemaObject(m)
			}
		}
	}
	if items, ok := doc["items"].(map[string]any); ok {
		s.Items = convertSchemaObject(items)
	}
	return s
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
