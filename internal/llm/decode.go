package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The candidate-plan shape is fixed, so the schema compiles once at startup.
var planSchema = mustCompilePlanSchema()

func mustCompilePlanSchema() *jsonschema.Schema {
	b, err := json.Marshal(BuildPlanJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal plan schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("plan.schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add plan schema: %v", err))
	}
	schema, err := compiler.Compile("plan.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile plan schema: %v", err))
	}
	return schema
}

// validatePlanJSON checks sanitized model output against the candidate-plan
// schema. Enum and required-field violations surface here, before unmarshal.
func validatePlanJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal candidate json: %w", err)
	}
	if err := planSchema.Validate(v); err != nil {
		return fmt.Errorf("candidate does not match plan schema: %w", err)
	}
	return nil
}

// DecodeCandidatePlan takes raw model content, applies lenient sanitization,
// validates the result strictly against the plan schema, and unmarshals it.
// Any structural deficiency (missing planName or meals, out-of-enum mealType
// or confidence) is an error here; nothing partially valid leaves this
// package.
func DecodeCandidatePlan(content []byte, logger *slog.Logger) (CandidatePlan, []byte, error) {
	cleaned, _, err := NormalizeCandidateJSON(content, logger)
	if err != nil {
		return CandidatePlan{}, nil, fmt.Errorf("candidate plan is not valid JSON: %w", err)
	}

	if err := validatePlanJSON(cleaned); err != nil {
		return CandidatePlan{}, cleaned, fmt.Errorf("candidate plan failed schema validation: %w", err)
	}

	var plan CandidatePlan
	if err := json.Unmarshal(cleaned, &plan); err != nil {
		return CandidatePlan{}, cleaned, fmt.Errorf("unmarshal candidate plan: %w", err)
	}
	return plan, cleaned, nil
}
