package dynform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONSchema(t *testing.T) {
	s, err := ParseSchema([]byte(feedbackSchemaJSON))
	require.NoError(t, err)

	js := ToJSONSchema(s)
	assert.Equal(t, "object", js.Type)
	assert.Equal(t, []string{"name", "score"}, js.Required)
	assert.Equal(t, []string{"name", "score", "topics", "visit", "notes", "contact"}, js.PropertyOrder)

	name := js.Properties["name"]
	require.NotNil(t, name)
	assert.Equal(t, "string", name.Type)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, 2, *name.MinLength)

	topics := js.Properties["topics"]
	assert.Equal(t, "array", topics.Type)
	assert.Equal(t, []any{"ui", "docs"}, topics.Items.Enum)
	require.NotNil(t, topics.MaxItems)
	assert.Equal(t, 1, *topics.MaxItems)
	assert.Nil(t, topics.MinItems)

	assert.Equal(t, "date", js.Properties["visit"].Format)
	assert.Equal(t, "boolean", js.Properties["contact"].Type)
	assert.Nil(t, js.Properties["contact"].Const)

	data, err := json.Marshal(js)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema":"https://json-schema.org/draft/2020-12/schema"`)
}

func TestToJSONSchemaRequiredDefaults(t *testing.T) {
	s := MustSchema("t", "",
		&TextField{FieldInfo: FieldInfo{ID: "name", Label: "Name", Required: true}},
		&MultiSelectField{
			FieldInfo: FieldInfo{ID: "tags", Label: "Tags", Required: true},
			Options:   []Option{{Value: "a", Label: "A"}},
		},
		&SwitchField{FieldInfo: FieldInfo{ID: "terms", Label: "Terms", Required: true}},
	)
	js := ToJSONSchema(s)

	require.NotNil(t, js.Properties["name"].MinLength)
	assert.Equal(t, 1, *js.Properties["name"].MinLength)
	require.NotNil(t, js.Properties["tags"].MinItems)
	assert.Equal(t, 1, *js.Properties["tags"].MinItems)
	require.NotNil(t, js.Properties["terms"].Const)
	assert.Equal(t, true, *js.Properties["terms"].Const)
}

func TestCheckJSONSchema(t *testing.T) {
	s, err := ParseSchema([]byte(feedbackSchemaJSON))
	require.NoError(t, err)

	assert.NoError(t, CheckJSONSchema(s, ValueSet{
		"name":   StringValue("Ann"),
		"score":  NumberValue(7),
		"topics": StringsValue("ui"),
	}))

	assert.Error(t, CheckJSONSchema(s, ValueSet{"name": StringValue("Ann")}), "missing required score")
	assert.Error(t, CheckJSONSchema(s, ValueSet{"name": StringValue("Ann"), "score": NumberValue(11)}))
	assert.Error(t, CheckJSONSchema(s, ValueSet{
		"name":   StringValue("Ann"),
		"score":  NumberValue(1),
		"topics": StringsValue("ui", "docs"),
	}))
}
