// validate.go - JSON Schema validation of request bodies
package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema names.
const (
	SchemaFloorplanCreate = "floorplan_create"
	SchemaDevice          = "device"
	SchemaDevicePosition  = "device_position"
	SchemaDeviceScale     = "device_scale"
	SchemaSessionOpen     = "session_open"
	SchemaEditorInput     = "editor_input"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator validates request bodies against the embedded JSON Schemas.
// Schemas are compiled once; the validator is safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("reading schemas: %w", err)
	}

	c := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal schema %s: %w", entry.Name(), err)
		}
		if err := c.AddResource(entry.Name(), doc); err != nil {
			return nil, fmt.Errorf("failed to add resource %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		compiled, err := c.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", name, err)
		}
		v.schemas[strings.TrimSuffix(name, ".json")] = compiled
	}
	return v, nil
}

// MustValidator is NewValidator for package initialisation and tests.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateJSON validates a JSON document against schema and decodes it into dst.
func (v *Validator) ValidateJSON(schema string, body []byte, dst any) *APIError {
	compiled, ok := v.schemas[schema]
	if !ok {
		return NewInternalError("unknown schema "+schema, nil)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return NewSchemaError(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return nil
}

// ValidateValue validates an already decoded value by its JSON form.
func (v *Validator) ValidateValue(schema string, value any) *APIError {
	body, err := json.Marshal(value)
	if err != nil {
		return NewBadRequestError("invalid payload", err)
	}
	var discard json.RawMessage
	return v.ValidateJSON(schema, body, &discard)
}

// Bind reads the request body, validates it against schema and decodes it into dst.
func (v *Validator) Bind(c echo.Context, schema string, dst any) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if apiErr := v.ValidateJSON(schema, body, dst); apiErr != nil {
		return apiErr
	}
	return nil
}
