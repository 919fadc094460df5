package dynform

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedbackSchemaJSON = `{
  "title": "Feedback",
  "description": "Tell us how we did",
  "fields": [
    {"id": "name", "type": "text", "label": "Name", "required": true, "validation": {"minLength": 2}},
    {"id": "score", "type": "number", "label": "Score", "required": true, "validation": {"min": 0, "max": 10}},
    {"id": "topics", "type": "multi-select", "label": "Topics", "required": false,
     "options": [{"value": "ui", "label": "UI"}, {"value": "docs", "label": "Docs"}],
     "validation": {"maxSelected": 1}},
    {"id": "visit", "type": "date", "label": "Visit", "required": false, "validation": {"minDate": "2024-01-01"}},
    {"id": "notes", "type": "textarea", "label": "Notes", "required": false},
    {"id": "contact", "type": "switch", "label": "Contact me", "description": "Allow follow-up", "required": false}
  ]
}`

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(feedbackSchemaJSON))
	require.NoError(t, err)

	assert.Equal(t, "Feedback", s.Title)
	assert.Equal(t, "Tell us how we did", s.Description)
	require.Equal(t, 6, s.Len())

	ids := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		ids = append(ids, f.Info().ID)
	}
	assert.Equal(t, []string{"name", "score", "topics", "visit", "notes", "contact"}, ids)

	score, ok := s.Field("score")
	require.True(t, ok)
	num, ok := score.(*NumberField)
	require.True(t, ok)
	require.NotNil(t, num.Constraints.Min)
	assert.Equal(t, 0.0, *num.Constraints.Min)
	assert.Equal(t, 10.0, *num.Constraints.Max)

	notes, _ := s.Field("notes")
	assert.Equal(t, FieldTypeTextarea, notes.Type())
	assert.True(t, notes.(*TextField).Multiline)

	contact, _ := s.Field("contact")
	assert.Equal(t, "Allow follow-up", contact.Info().Description)

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	s, err := ParseSchema([]byte(feedbackSchemaJSON))
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, feedbackSchemaJSON, string(data))
}

func TestParseSchemaRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		errType SchemaErrorType
		field   string
	}{
		{
			name:    "malformed document",
			doc:     `{"title": `,
			errType: SchemaErrorTypeInvalidFormat,
		},
		{
			name:    "no fields",
			doc:     `{"title": "Empty"}`,
			errType: SchemaErrorTypeInvalidFormat,
		},
		{
			name:    "unknown type",
			doc:     `{"fields": [{"id": "a", "type": "color", "label": "A"}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "constraint for another type",
			doc:     `{"fields": [{"id": "a", "type": "number", "label": "A", "validation": {"minLength": 2}}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "options on text",
			doc:     `{"fields": [{"id": "a", "type": "text", "label": "A", "options": [{"value": "x", "label": "X"}]}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "select without options",
			doc:     `{"fields": [{"id": "a", "type": "select", "label": "A"}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "duplicate option",
			doc:     `{"fields": [{"id": "a", "type": "select", "label": "A", "options": [{"value": "x", "label": "X"}, {"value": "x", "label": "Y"}]}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "duplicate id",
			doc:     `{"fields": [{"id": "a", "type": "text", "label": "A"}, {"id": "a", "type": "switch", "label": "B"}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "missing label",
			doc:     `{"fields": [{"id": "a", "type": "text"}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "missing id",
			doc:     `{"fields": [{"type": "text", "label": "A"}]}`,
			errType: SchemaErrorTypeInvalidField,
		},
		{
			name:    "bad regex",
			doc:     `{"fields": [{"id": "a", "type": "text", "label": "A", "validation": {"regex": "("}}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "inverted lengths",
			doc:     `{"fields": [{"id": "a", "type": "text", "label": "A", "validation": {"minLength": 5, "maxLength": 2}}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "inverted bounds",
			doc:     `{"fields": [{"id": "a", "type": "number", "label": "A", "validation": {"min": 5, "max": 2}}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
		{
			name:    "unparseable minDate",
			doc:     `{"fields": [{"id": "a", "type": "date", "label": "A", "validation": {"minDate": "soon"}}]}`,
			errType: SchemaErrorTypeInvalidField,
			field:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsSchemaError(err, tt.errType), err.Error())

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestNewSchemaRejectsNilField(t *testing.T) {
	_, err := NewSchema("t", "", nil)
	assert.True(t, IsSchemaError(err, SchemaErrorTypeInvalidField))
	assert.Panics(t, func() { MustSchema("t", "", nil) })
}

func TestSchemaFieldsReturnsCopy(t *testing.T) {
	s := MustSchema("t", "", &SwitchField{FieldInfo: FieldInfo{ID: "a", Label: "A"}})
	fields := s.Fields()
	fields[0] = nil

	again := s.Fields()
	require.NotNil(t, again[0])
	assert.Equal(t, "a", again[0].Info().ID)
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "feedback.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(feedbackSchemaJSON), 0o644))
	s, err := LoadSchemaFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())

	yamlPath := filepath.Join(dir, "feedback.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
title: Feedback
fields:
  - id: team
    type: select
    label: Team
    required: true
    options:
      - {value: eng, label: Engineering}
`), 0o644))
	s, err = LoadSchemaFile(yamlPath)
	require.NoError(t, err)
	team, ok := s.Field("team")
	require.True(t, ok)
	assert.Equal(t, []Option{{Value: "eng", Label: "Engineering"}}, OptionsOf(team))

	_, err = LoadSchemaFile(filepath.Join(dir, "missing.json"))
	assert.True(t, IsSchemaError(err, SchemaErrorTypeNotFound))

	txtPath := filepath.Join(dir, "feedback.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(feedbackSchemaJSON), 0o644))
	_, err = LoadSchemaFile(txtPath)
	assert.True(t, IsSchemaError(err, SchemaErrorTypeInvalidFormat))

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"fields": [{"id": "a", "type": "slider", "label": "A"}]}`), 0o644))
	_, err = LoadSchemaFile(badPath)
	assert.True(t, IsSchemaError(err, SchemaErrorTypeInvalidField))
}
