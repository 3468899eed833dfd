package llm

// BuildPlanJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// candidate plan as a generic map. We validate the model output against it
// locally before anything leaves this package; a response missing planName,
// meals, or the confidence/warnings pair is rejected, not coerced.
func BuildPlanJSONSchema() map[string]any {
	optionProps := map[string]any{
		"number":      map[string]any{"type": "integer", "minimum": 1},
		"description": map[string]any{"type": "string"},
		"foods":       stringArrayProp(),
	}
	mealProps := map[string]any{
		"mealType": map[string]any{
			"type": "string",
			"enum": []string{"breakfast", "lunch", "dinner", "snack", "fasting"},
		},
		"name": map[string]any{"type": "string"},
		"options": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           optionProps,
				"required":             []string{"number", "description"},
			},
		},
		"requiredFoods":     stringArrayProp(),
		"allowedFoods":      stringArrayProp(),
		"optionalAddons":    stringArrayProp(),
		"caloriesRange":     nullableStringProp(),
		"proteinRange":      nullableStringProp(),
		"isOptional":        map[string]any{"type": "boolean"},
		"isPreWorkout":      map[string]any{"type": "boolean"},
		"scheduledTime":     nullableStringProp(),
		"referencesMeal":    nullableStringProp(),
		"snackTimeCategory": nullableStringProp(),
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"planName": map[string]any{"type": "string", "minLength": 1},
			"meals": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           mealProps,
					"required":             []string{"mealType"},
				},
			},
			"confidence": map[string]any{
				"type": "string",
				"enum": []string{"high", "medium", "low"},
			},
			"warnings": stringArrayProp(),
		},
		"required": []string{"planName", "meals", "confidence", "warnings"},
	}
}

func stringArrayProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func nullableStringProp() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}
