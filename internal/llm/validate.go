package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator holds a compiled schema so each response is validated without recompiling.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// CompileSchema compiles schemaMap once.
func CompileSchema(schemaMap map[string]any) (*SchemaValidator, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate checks data against the compiled schema.
func (v *SchemaValidator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	v, err := CompileSchema(schemaMap)
	if err != nil {
		return err
	}
	return v.Validate(data)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
