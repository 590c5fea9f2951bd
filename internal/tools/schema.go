package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaFor reflects an argument struct into an inline JSON Schema object.
// Property order follows struct field order; fields without omitempty are required.
func SchemaFor(v any) json.RawMessage {
	return reflectSchema(v, false)
}

// OpenSchemaFor is SchemaFor without the additionalProperties restriction,
// so objects carrying extra keys still validate
func OpenSchemaFor(v any) json.RawMessage {
	return reflectSchema(v, true)
}

func reflectSchema(v any, allowExtra bool) json.RawMessage {
	reflector := jsonschema.Reflector{ExpandedStruct: true, AllowAdditionalProperties: allowExtra}
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""

	b, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("reflect schema for %T: %v", v, err))
	}
	return b
}

func compileSchema(params json.RawMessage) (*gojsonschema.Schema, error) {
	if len(params) == 0 {
		params = json.RawMessage(`{"type":"object"}`)
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(params))
}

// validateAgainst returns the list of schema violations, or nil when args conform
func validateAgainst(schema *gojsonschema.Schema, args json.RawMessage) []string {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return []string{fmt.Sprintf("arguments are not valid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems
}
