package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Providers pass it to structured-output models as a constraint;
// local checks use the tolerant variant below.
func BuildInvoiceJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    map[string]any{"type": "number", "exclusiveMinimum": 0},
			"unit_price":  map[string]any{"type": "number", "minimum": 0},
			"total_price": map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"description", "quantity", "unit_price", "total_price"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string", "minLength": 1},
			"date":           map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"vendor_name":    map[string]any{"type": "string", "minLength": 1},
			"total_amount":   map[string]any{"type": "number", "exclusiveMinimum": 0},
			"line_items": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    item,
			},
		},
		"required": []string{"invoice_number", "date", "vendor_name", "total_amount", "line_items"},
	}
}

// TolerantSchema strips required/minItems constraints and widens numeric
// types to also accept strings, so that incomplete or loosely-typed
// extractions flow through to rule validation as feedback instead of dying
// at the provider boundary. The rule validator coerces string numerics the
// same way regardless of provider.
func TolerantSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch k {
		case "required", "minItems", "pattern", "exclusiveMinimum", "minimum", "minLength":
			continue
		case "type":
			if v == "number" {
				out[k] = []string{"number", "string"}
				continue
			}
		}
		switch t := v.(type) {
		case map[string]any:
			out[k] = TolerantSchema(t)
		default:
			out[k] = v
		}
	}
	return out
}

// ValidateAgainstSchema validates data against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
