package assemble

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Schema returns the JSON Schema of a serialized DocumentExtraction. It is
// the contract downstream consumers rely on.
func Schema() map[string]any {
	fieldNames := make([]any, 0, len(filing.AllFields()))
	for _, f := range filing.AllFields() {
		fieldNames = append(fieldNames, f.String())
	}
	sectionKinds := []any{"cover", "business", "governance", "financials", "other"}
	reasons := []any{
		string(filing.ReasonNoCandidates),
		string(filing.ReasonBelowThreshold),
		string(filing.ReasonAmbiguousTie),
	}
	unit := map[string]any{"type": "number", "minimum": 0, "maximum": 1}

	provenance := map[string]any{
		"type":     "object",
		"required": []any{"section", "section_index", "page", "text", "start", "end"},
		"properties": map[string]any{
			"section":       map[string]any{"enum": sectionKinds},
			"section_index": map[string]any{"type": "integer", "minimum": 0},
			"page":          map[string]any{"type": "integer", "minimum": 0},
			"text":          map[string]any{"type": "string"},
			"start":         map[string]any{"type": "integer", "minimum": 0},
			"end":           map[string]any{"type": "integer", "minimum": 0},
		},
	}
	provenanceList := map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/provenance"}}
	value := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "number"},
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}

	field := map[string]any{
		"type":     "object",
		"required": []any{"confidence"},
		"properties": map[string]any{
			"value":      value,
			"normalized": value,
			"confidence": unit,
			"provenance": provenanceList,
			"not_found":  map[string]any{"enum": reasons},
			"low_confidence": map[string]any{
				"type":     "object",
				"required": []any{"value", "confidence", "provenance"},
				"properties": map[string]any{
					"value":      map[string]any{"type": "string"},
					"confidence": unit,
					"provenance": provenanceList,
				},
			},
		},
		"oneOf": []any{
			map[string]any{"required": []any{"value", "provenance"}, "not": map[string]any{"required": []any{"not_found"}}},
			map[string]any{"required": []any{"not_found"}, "not": map[string]any{"required": []any{"value"}}},
		},
		"additionalProperties": false,
	}

	degradation := map[string]any{
		"type":     "object",
		"required": []any{"kind", "page", "section", "detail"},
		"properties": map[string]any{
			"kind":         map[string]any{"enum": []any{string(filing.DegradationAnnotator), string(filing.DegradationOCR)}},
			"page":         map[string]any{"type": "integer", "minimum": -1},
			"section":      map[string]any{"type": "integer", "minimum": -1},
			"section_kind": map[string]any{"enum": sectionKinds},
			"detail":       map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []any{"fields", "document_id", "hash", "page_count", "degraded", "degradations"},
		"properties": map[string]any{
			"fields": map[string]any{
				"type":                 "object",
				"propertyNames":        map[string]any{"enum": fieldNames},
				"additionalProperties": map[string]any{"$ref": "#/$defs/field"},
			},
			"document_id":  map[string]any{"type": "string", "minLength": 1},
			"source_path":  map[string]any{"type": "string"},
			"hash":         map[string]any{"type": "string"},
			"page_count":   map[string]any{"type": "integer", "minimum": 0},
			"degraded":     map[string]any{"type": "boolean"},
			"degradations": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/degradation"}},
		},
		"$defs": map[string]any{
			"provenance":  provenance,
			"field":       field,
			"degradation": degradation,
		},
	}
}

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(Schema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateJSON checks a serialized DocumentExtraction against Schema.
func ValidateJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
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

// Marshal serializes an extraction and validates the result.
func Marshal(ex *filing.DocumentExtraction) ([]byte, error) {
	data, err := json.Marshal(ex)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}
