package llm

import (
	"encoding/json"
	"sort"
	"strings"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
)

// Schema is the subset of JSON Schema every provider can express.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
	Format      string
	MinItems    *int
	MaxItems    *int
	Minimum     *float64
	Maximum     *float64
}

func Object(desc string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Description: desc, Properties: props, Required: required}
}

func String(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

func Number(desc string) *Schema {
	return &Schema{Type: TypeNumber, Description: desc}
}

func Array(desc string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: items}
}

func Enum(desc string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: desc, Enum: values}
}

// WithRange bounds a number schema.
func (s *Schema) WithRange(min, max float64) *Schema {
	s.Minimum, s.Maximum = &min, &max
	return s
}

// WithItems bounds an array schema.
func (s *Schema) WithItems(min, max int) *Schema {
	s.MinItems, s.MaxItems = &min, &max
	return s
}

// Map renders the schema as a JSON Schema document.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	m := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.Map()
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	if s.Items != nil {
		m["items"] = s.Items.Map()
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if s.Format != "" {
		m["format"] = s.Format
	}
	if s.MinItems != nil {
		m["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		m["maxItems"] = *s.MaxItems
	}
	if s.Minimum != nil {
		m["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		m["maximum"] = *s.Maximum
	}
	return m
}

// String returns the schema as indented JSON for embedding in prompts.
func (s *Schema) String() string {
	b, err := json.MarshalIndent(s.Map(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PropertyNames returns the property names sorted, for stable conversions.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ExtractJSON trims code fences and surrounding prose from a model reply,
// returning the outermost JSON object.
func ExtractJSON(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "{") && json.Valid([]byte(t)) {
		return t
	}

	start := strings.Index(t, "{")
	if start < 0 {
		return t
	}
	depth, inString, escaped := 0, false, false
	for i := start; i < len(t); i++ {
		c := t[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return t[start : i+1]
			}
		}
	}
	return t[start:]
}
