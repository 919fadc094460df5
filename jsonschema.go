package dynform

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// ToJSONSchema renders the form as a JSON Schema object. The result is
// advisory: numeric strings, epoch-millisecond dates and the "today" minimum
// are only understood by the engine.
func ToJSONSchema(s *Schema) *jsonschema.Schema {
	out := &jsonschema.Schema{
		Schema:      jsonSchemaDraft,
		Title:       s.Title,
		Description: s.Description,
		Type:        "object",
		Properties:  make(map[string]*jsonschema.Schema, len(s.fields)),
	}
	for _, f := range s.fields {
		info := f.Info()
		out.Properties[info.ID] = propertySchema(f)
		out.PropertyOrder = append(out.PropertyOrder, info.ID)
		if info.Required {
			out.Required = append(out.Required, info.ID)
		}
	}
	return out
}

func propertySchema(f Field) *jsonschema.Schema {
	info := f.Info()
	p := &jsonschema.Schema{Title: info.Label, Description: info.Description}
	switch ft := f.(type) {
	case *TextField:
		p.Type = "string"
		c := ft.Constraints
		p.MinLength = ptrIfNonZero(c.MinLength)
		p.MaxLength = ptrIfNonZero(c.MaxLength)
		p.Pattern = c.Regex
		if info.Required && p.MinLength == nil {
			one := 1
			p.MinLength = &one
		}
	case *NumberField:
		p.Type = "number"
		p.Minimum = ft.Constraints.Min
		p.Maximum = ft.Constraints.Max
	case *SelectField:
		p.Type = "string"
		p.Enum = optionValues(ft.Options)
	case *MultiSelectField:
		p.Type = "array"
		p.Items = &jsonschema.Schema{Type: "string", Enum: optionValues(ft.Options)}
		p.MinItems = ptrIfNonZero(ft.Constraints.MinSelected)
		p.MaxItems = ptrIfNonZero(ft.Constraints.MaxSelected)
		if info.Required && p.MinItems == nil {
			one := 1
			p.MinItems = &one
		}
	case *DateField:
		p.Type = "string"
		p.Format = "date"
	case *SwitchField:
		p.Type = "boolean"
		if info.Required {
			var accepted any = true
			p.Const = &accepted
		}
	}
	return p
}

func optionValues(options []Option) []any {
	out := make([]any, len(options))
	for i, opt := range options {
		out[i] = opt.Value
	}
	return out
}

// CheckJSONSchema validates values against the JSON Schema rendering of s.
func CheckJSONSchema(s *Schema, values ValueSet) error {
	resolved, err := ToJSONSchema(s).Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}
	if err := resolved.Validate(values.ToMap()); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}
