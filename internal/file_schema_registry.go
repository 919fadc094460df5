package internal

import (
	_ "embed"
	"fmt"
	"sync"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"go.uber.org/zap"
)

//go:embed schemas/onboarding.json
var onboardingSchemaJSON []byte

var (
	defaultSchemaOnce sync.Once
	defaultSchema     *dynform.Schema
	defaultSchemaErr  error
)

// DefaultSchema returns the built-in employee onboarding form.
func DefaultSchema() *dynform.Schema {
	defaultSchemaOnce.Do(func() {
		defaultSchema, defaultSchemaErr = dynform.ParseSchema(onboardingSchemaJSON)
	})
	if defaultSchemaErr != nil {
		panic(fmt.Sprintf("built-in schema is invalid: %v", defaultSchemaErr))
	}
	return defaultSchema
}

type staticSchemaProvider struct {
	schema *dynform.Schema
}

// NewStaticSchemaProvider serves a fixed schema.
func NewStaticSchemaProvider(schema *dynform.Schema) dynform.SchemaProvider {
	return &staticSchemaProvider{schema: schema}
}

func (p *staticSchemaProvider) Schema() *dynform.Schema {
	return p.schema
}

// NewFileSchemaProvider loads the schema at path once, or serves the built-in
// schema when path is empty.
func NewFileSchemaProvider(path string) (dynform.SchemaProvider, error) {
	if path == "" {
		zap.S().Infow("using built-in form schema", "title", DefaultSchema().Title)
		return NewStaticSchemaProvider(DefaultSchema()), nil
	}
	schema, err := dynform.LoadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	zap.S().Infow("loaded form schema", "path", path, "title", schema.Title, "fields", schema.Len())
	return NewStaticSchemaProvider(schema), nil
}
