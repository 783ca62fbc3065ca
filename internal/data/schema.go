package data

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldError is one schema violation.
type FieldError struct {
	// Location is the JSON pointer of the offending value ("" for the root).
	Location string
	Message  string
}

// ValidationError reports every violation found while validating data.
type ValidationError struct {
	Schema string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		loc := f.Location
		if loc == "" {
			loc = "/"
		}
		msgs = append(msgs, loc+": "+f.Message)
	}
	return fmt.Sprintf("data does not match schema %s: %s", e.Schema, strings.Join(msgs, "; "))
}

// CompileSchema loads a JSON Schema file. Schemas without $schema are
// treated as draft 2020-12.
func CompileSchema(path string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	schema, err := compiler.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", path, err)
	}
	return schema, nil
}

// Validate checks v against the schema at schemaPath. v may be any
// serializable value; it is normalized first.
func Validate(schemaPath string, v any) error {
	schema, err := CompileSchema(schemaPath)
	if err != nil {
		return err
	}
	return ValidateWith(schema, schemaPath, v)
}

// ValidateWith checks v against an already compiled schema.
func ValidateWith(schema *jsonschema.Schema, name string, v any) error {
	normalized, err := Normalize(v)
	if err != nil {
		return err
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validating data: %w", err)
	}

	result := &ValidationError{Schema: name}
	collectFieldErrors(verr, result)
	return result
}

// collectFieldErrors flattens the leaves of a validation error tree.
func collectFieldErrors(err *jsonschema.ValidationError, result *ValidationError) {
	if len(err.Causes) == 0 {
		result.Fields = append(result.Fields, FieldError{
			Location: err.InstanceLocation,
			Message:  err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectFieldErrors(cause, result)
	}
}
