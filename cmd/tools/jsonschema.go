package main

import (
	"fmt"
	"io"
	"os"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/internal"
	"github.com/goccy/go-json"
)

func runJSONSchema(args []string, out io.Writer) error {
	flags := newFlagSet("jsonschema", out)
	schemaFile := flags.String("schema", "", "form schema file (.json, .yaml); default is the built-in onboarding form")
	checkFile := flags.String("check", "", "JSON file of values to check against the schema")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	schema := internal.DefaultSchema()
	if *schemaFile != "" {
		loaded, err := dynform.LoadSchemaFile(*schemaFile)
		if err != nil {
			return err
		}
		schema = loaded
	}

	if *checkFile == "" {
		data, err := json.MarshalIndent(dynform.ToJSONSchema(schema), "", "  ")
		if err != nil {
			return fmt.Errorf("encode json schema: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	raw, err := os.ReadFile(*checkFile)
	if err != nil {
		return fmt.Errorf("read values: %w", err)
	}
	var values dynform.ValueSet
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("decode values: %w", err)
	}
	return checkValues(out, schema, values)
}

// checkValues runs both the JSON Schema rendition and the form validator.
// The form validator is authoritative; the JSON Schema cannot express every
// rule, such as minDate today.
func checkValues(out io.Writer, schema *dynform.Schema, values dynform.ValueSet) error {
	schemaErr := dynform.CheckJSONSchema(schema, values)
	if schemaErr != nil {
		fmt.Fprintf(out, "json schema: %v\n", schemaErr)
	} else {
		fmt.Fprintln(out, "json schema: ok")
	}

	result := dynform.NewValidator().Validate(schema, values)
	if result.Valid() {
		fmt.Fprintln(out, "validator: ok")
		return nil
	}
	return dynform.NewValidationFailedError(result)
}
