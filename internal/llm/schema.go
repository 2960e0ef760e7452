package llm

import "github.com/joseph-ayodele/custody-tracker/constants"

// SchemaName identifies the output schema sent to providers.
const SchemaName = "custody_extraction_v2"

// BuildExtractionJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the provider as a structured output constraint and also use it locally to validate.
// Every property is required; optional values are expressed as nullable types.
func BuildExtractionJSONSchema() map[string]any {
	return object(map[string]any{
		"events":       arrayOf(eventSchema()),
		"action_items": arrayOf(actionItemSchema()),
		"metadata": object(map[string]any{
			"extraction_confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"ambiguities":           arrayOf(map[string]any{"type": "string"}),
		}),
	})
}

func eventSchema() map[string]any {
	return object(map[string]any{
		"type":             enumOf(constants.EventTypeStrings()),
		"title":            map[string]any{"type": "string", "minLength": 1},
		"description":      map[string]any{"type": "string", "minLength": 1},
		"timestamp":        nullable("string"),
		"time_precision":   enumOf(constants.TimePrecisionStrings()),
		"duration_minutes": map[string]any{"type": []any{"integer", "null"}, "minimum": 0},
		"location":         nullable("string"),
		"participants":     arrayOf(map[string]any{"type": "string"}),
		"child_involved":   map[string]any{"type": "boolean"},
		"custody_relevance": object(map[string]any{
			"agreement_violation": nullable("boolean"),
			"safety_concern":      map[string]any{"type": "boolean"},
			"welfare_impact": nullableObject(map[string]any{
				"category":  enumOf(constants.WelfareCategories),
				"direction": enumOf(constants.WelfareDirections),
				"severity":  enumOf(constants.WelfareSeverities),
			}),
		}),
		"child_statements": arrayOf(object(map[string]any{
			"statement": map[string]any{"type": "string", "minLength": 1},
			"child":     nullable("string"),
			"context":   nullable("string"),
		})),
		"coparent_interaction": nullableObject(map[string]any{
			"tone":                 enumOf(constants.InteractionTones),
			"summary":              map[string]any{"type": "string"},
			"communication_method": nullable("string"),
		}),
		"patterns": arrayOf(object(map[string]any{
			"type":      map[string]any{"type": "string", "minLength": 1},
			"frequency": enumOf(constants.PatternFrequencies),
		})),
	})
}

func actionItemSchema() map[string]any {
	return object(map[string]any{
		"priority":    enumOf(constants.ActionPriorities),
		"type":        enumOf(constants.ActionTypes),
		"description": map[string]any{"type": "string", "minLength": 1},
		"deadline": map[string]any{
			"type":    []any{"string", "null"},
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		},
	})
}

// object builds a closed object schema with every property required.
func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for _, k := range sortedKeys(props) {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func nullableObject(props map[string]any) map[string]any {
	return map[string]any{
		"anyOf": []any{object(props), map[string]any{"type": "null"}},
	}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []any{typ, "null"}}
}

func enumOf(values []string) map[string]any {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]any{"type": "string", "enum": enum}
}
