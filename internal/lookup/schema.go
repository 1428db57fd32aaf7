package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas for the embedded data files. Loading fails fast on a malformed
// table rather than surfacing garbage candidates at extraction time.
const currencySchema = `{
  "type": "object",
  "minProperties": 1,
  "propertyNames": {"pattern": "^[A-Z]{3}$"},
  "additionalProperties": {
    "type": "object",
    "required": ["symbol", "name", "decimalPlaces", "minRange", "maxRange", "keywords"],
    "properties": {
      "symbol": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "decimalPlaces": {"type": "integer", "minimum": 0, "maximum": 4},
      "minRange": {"type": "number", "exclusiveMinimum": 0},
      "maxRange": {"type": "number", "exclusiveMinimum": 0},
      "keywords": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

const regionSchema = `{
  "type": "object",
  "minProperties": 1,
  "propertyNames": {"pattern": "^[A-Z]{2}$"},
  "additionalProperties": {
    "type": "object",
    "required": ["defaultCurrency", "keywords", "regexPatterns", "decimalSep", "thousandsSep", "symbolPosition"],
    "properties": {
      "defaultCurrency": {"type": "string", "pattern": "^[A-Z]{3}$"},
      "keywords": {"type": "array", "items": {"type": "string"}},
      "regexPatterns": {"type": "array", "items": {"type": "string"}},
      "decimalSep": {"type": "string", "enum": [".", ","]},
      "thousandsSep": {"type": "string", "enum": [".", ",", " ", "'"]},
      "symbolPosition": {"type": "string", "enum": ["before", "after"]},
      "typicalMin": {"type": "number", "minimum": 0},
      "typicalMax": {"type": "number", "minimum": 0}
    }
  }
}`

const businessSchema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "required": ["suffixes"],
    "properties": {
      "suffixes": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
    }
  }
}`

// validateAgainstSchema validates raw JSON data against a schema document.
func validateAgainstSchema(name, schemaDoc string, data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(schemaDoc))); err != nil {
		return fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s does not match schema: %w", name, err)
	}
	return nil
}
