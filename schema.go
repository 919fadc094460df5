package dynform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is an immutable, validated form definition.
type Schema struct {
	Title       string
	Description string

	fields []Field
	index  map[string]int
}

// NewSchema validates the fields and builds a schema. Field ids must be unique.
func NewSchema(title, description string, fields ...Field) (*Schema, error) {
	s := &Schema{
		Title:       title,
		Description: description,
		fields:      make([]Field, 0, len(fields)),
		index:       make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == nil {
			return nil, NewSchemaError(SchemaErrorTypeInvalidField, fmt.Sprintf("field %d is nil", i), nil)
		}
		if err := f.prepare(); err != nil {
			return nil, err
		}
		id := f.Info().ID
		if _, dup := s.index[id]; dup {
			return nil, newFieldError(id, "duplicate field id", nil)
		}
		s.index[id] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(title, description string, fields ...Field) *Schema {
	s, err := NewSchema(title, description, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by id.
func (s *Schema) Field(id string) (Field, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// ParseSchema decodes a schema document. YAML is a superset of JSON, so both
// encodings are accepted.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		if IsSchemaError(err, "") {
			return nil, err
		}
		return nil, NewSchemaError(SchemaErrorTypeInvalidFormat, "failed to decode schema", err)
	}
	if s.fields == nil {
		return nil, NewSchemaError(SchemaErrorTypeInvalidFormat, "schema has no fields", nil)
	}
	return &s, nil
}

// LoadSchemaFile reads a schema from a .json, .yaml or .yml file.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewSchemaError(SchemaErrorTypeNotFound, fmt.Sprintf("failed to read schema file %s", path), err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var s Schema
		if err := json.Unmarshal(data, &s); err != nil {
			if IsSchemaError(err, "") {
				return nil, err
			}
			return nil, NewSchemaError(SchemaErrorTypeInvalidFormat, fmt.Sprintf("failed to parse schema file %s", path), err)
		}
		return &s, nil
	case ".yaml", ".yml":
		return ParseSchema(data)
	default:
		return nil, NewSchemaError(SchemaErrorTypeInvalidFormat, fmt.Sprintf("unsupported schema file extension %q", filepath.Ext(path)), nil)
	}
}

type schemaWire struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldWire `json:"fields" yaml:"fields"`
}

type fieldWire struct {
	ID          string          `json:"id" yaml:"id"`
	Type        FieldType       `json:"type" yaml:"type"`
	Label       string          `json:"label" yaml:"label"`
	Placeholder string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool            `json:"required" yaml:"required"`
	Options     []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	Validation  *validationWire `json:"validation,omitempty" yaml:"validation,omitempty"`
}

type validationWire struct {
	MinLength    *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength    *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Regex        *string  `json:"regex,omitempty" yaml:"regex,omitempty"`
	RegexMessage *string  `json:"regexMessage,omitempty" yaml:"regexMessage,omitempty"`
	Min          *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinDate      *string  `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	MinSelected  *int     `json:"minSelected,omitempty" yaml:"minSelected,omitempty"`
	MaxSelected  *int     `json:"maxSelected,omitempty" yaml:"maxSelected,omitempty"`
}

// setKeys lists the constraint keys present, in declaration order.
func (v *validationWire) setKeys() []string {
	if v == nil {
		return nil
	}
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(v.MinLength != nil, "minLength")
	add(v.MaxLength != nil, "maxLength")
	add(v.Regex != nil, "regex")
	add(v.RegexMessage != nil, "regexMessage")
	add(v.Min != nil, "min")
	add(v.Max != nil, "max")
	add(v.MinDate != nil, "minDate")
	add(v.MinSelected != nil, "minSelected")
	add(v.MaxSelected != nil, "maxSelected")
	return keys
}

var applicableKeys = map[FieldType]map[string]bool{
	FieldTypeText:        {"minLength": true, "maxLength": true, "regex": true, "regexMessage": true},
	FieldTypeTextarea:    {"minLength": true, "maxLength": true, "regex": true, "regexMessage": true},
	FieldTypeNumber:      {"min": true, "max": true},
	FieldTypeSelect:      {},
	FieldTypeMultiSelect: {"minSelected": true, "maxSelected": true},
	FieldTypeDate:        {"minDate": true},
	FieldTypeSwitch:      {},
}

func (w fieldWire) toField() (Field, error) {
	allowed, known := applicableKeys[w.Type]
	if !known {
		return nil, newFieldError(w.ID, fmt.Sprintf("unknown field type %q", w.Type), nil)
	}
	for _, key := range w.Validation.setKeys() {
		if !allowed[key] {
			return nil, newFieldError(w.ID, fmt.Sprintf("validation key %q does not apply to %s fields", key, w.Type), nil)
		}
	}
	if len(w.Options) > 0 && w.Type != FieldTypeSelect && w.Type != FieldTypeMultiSelect {
		return nil, newFieldError(w.ID, fmt.Sprintf("options do not apply to %s fields", w.Type), nil)
	}

	info := FieldInfo{
		ID:          w.ID,
		Label:       w.Label,
		Required:    w.Required,
		Placeholder: w.Placeholder,
		Description: w.Description,
	}
	v := w.Validation
	if v == nil {
		v = &validationWire{}
	}

	switch w.Type {
	case FieldTypeText, FieldTypeTextarea:
		return &TextField{
			FieldInfo: info,
			Multiline: w.Type == FieldTypeTextarea,
			Constraints: TextConstraints{
				MinLength:    derefOr(v.MinLength, 0),
				MaxLength:    derefOr(v.MaxLength, 0),
				Regex:        derefOr(v.Regex, ""),
				RegexMessage: derefOr(v.RegexMessage, ""),
			},
		}, nil
	case FieldTypeNumber:
		return &NumberField{
			FieldInfo:   info,
			Constraints: NumberConstraints{Min: v.Min, Max: v.Max},
		}, nil
	case FieldTypeSelect:
		return &SelectField{FieldInfo: info, Options: w.Options}, nil
	case FieldTypeMultiSelect:
		return &MultiSelectField{
			FieldInfo: info,
			Options:   w.Options,
			Constraints: SelectionConstraints{
				MinSelected: derefOr(v.MinSelected, 0),
				MaxSelected: derefOr(v.MaxSelected, 0),
			},
		}, nil
	case FieldTypeDate:
		return &DateField{
			FieldInfo:   info,
			Constraints: DateConstraints{MinDate: derefOr(v.MinDate, "")},
		}, nil
	default:
		return &SwitchField{FieldInfo: info}, nil
	}
}

func wireOf(f Field) fieldWire {
	info := f.Info()
	w := fieldWire{
		ID:          info.ID,
		Type:        f.Type(),
		Label:       info.Label,
		Placeholder: info.Placeholder,
		Description: info.Description,
		Required:    info.Required,
		Options:     OptionsOf(f),
	}
	v := &validationWire{}
	switch ft := f.(type) {
	case *TextField:
		v.MinLength = ptrIfNonZero(ft.Constraints.MinLength)
		v.MaxLength = ptrIfNonZero(ft.Constraints.MaxLength)
		v.Regex = ptrIfNonZero(ft.Constraints.Regex)
		v.RegexMessage = ptrIfNonZero(ft.Constraints.RegexMessage)
	case *NumberField:
		v.Min = ft.Constraints.Min
		v.Max = ft.Constraints.Max
	case *MultiSelectField:
		v.MinSelected = ptrIfNonZero(ft.Constraints.MinSelected)
		v.MaxSelected = ptrIfNonZero(ft.Constraints.MaxSelected)
	case *DateField:
		v.MinDate = ptrIfNonZero(ft.Constraints.MinDate)
	}
	if len(v.setKeys()) > 0 {
		w.Validation = v
	}
	return w
}

func (s *Schema) fromWire(w schemaWire) error {
	if len(w.Fields) == 0 {
		return NewSchemaError(SchemaErrorTypeInvalidFormat, "schema has no fields", nil)
	}
	fields := make([]Field, 0, len(w.Fields))
	for _, fw := range w.Fields {
		f, err := fw.toField()
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}
	built, err := NewSchema(w.Title, w.Description, fields...)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}

func (s Schema) toWire() schemaWire {
	w := schemaWire{
		Title:       s.Title,
		Description: s.Description,
		Fields:      make([]fieldWire, 0, len(s.fields)),
	}
	for _, f := range s.fields {
		w.Fields = append(w.Fields, wireOf(f))
	}
	return w
}

// MarshalJSON renders the schema in its declarative document form.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toWire())
}

// UnmarshalJSON decodes and validates a schema document.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var w schemaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return s.fromWire(w)
}

// MarshalYAML renders the schema in its declarative document form.
func (s Schema) MarshalYAML() (any, error) {
	return s.toWire(), nil
}

// UnmarshalYAML decodes and validates a schema document.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var w schemaWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	return s.fromWire(w)
}

func derefOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func ptrIfNonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
