package llm

import (
	"strings"
	"testing"
)

const validPayload = `{
	"planName": "Plano Alimentar",
	"meals": [
		{
			"mealType": "breakfast",
			"name": "Café da Manhã",
			"options": [
				{"number": 1, "description": "Ovos com pão", "foods": ["ovos", "pão"]},
				{"number": 2, "description": "Iogurte com granola"}
			],
			"caloriesRange": "300-400",
			"scheduledTime": "07:30"
		},
		{"mealType": "snack", "name": "Lanche", "isOptional": true, "snackTimeCategory": "afternoon"}
	],
	"confidence": "high",
	"warnings": []
}`

func TestDecodeCandidatePlanValid(t *testing.T) {
	plan, raw, err := DecodeCandidatePlan([]byte(validPayload), nil)
	if err != nil {
		t.Fatalf("DecodeCandidatePlan: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected cleaned JSON back")
	}
	if plan.PlanName != "Plano Alimentar" || plan.Confidence != "high" {
		t.Errorf("planName/confidence = %q/%q", plan.PlanName, plan.Confidence)
	}
	if len(plan.Meals) != 2 || len(plan.Meals[0].Options) != 2 {
		t.Fatalf("meals/options shape wrong: %+v", plan.Meals)
	}
	if plan.Meals[1].SnackTimeCategory != "afternoon" {
		t.Errorf("snackTimeCategory = %q", plan.Meals[1].SnackTimeCategory)
	}
}

func TestDecodeCandidatePlanSanitizes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, plan CandidatePlan)
	}{
		{
			name: "unknown keys dropped",
			input: `{"planName": "P", "meals": [{"mealType": "lunch", "servingSize": "large"}],
				"confidence": "medium", "warnings": [], "modelNotes": "hi"}`,
			check: func(t *testing.T, plan CandidatePlan) {
				if len(plan.Meals) != 1 {
					t.Fatalf("meals = %+v", plan.Meals)
				}
			},
		},
		{
			name: "missing warnings defaulted",
			input: `{"planName": "P", "meals": [], "confidence": "low"}`,
			check: func(t *testing.T, plan CandidatePlan) {
				if plan.Warnings == nil || len(plan.Warnings) != 0 {
					t.Errorf("warnings = %v, want empty array", plan.Warnings)
				}
			},
		},
		{
			name: "uppercase enums lowered",
			input: `{"planName": "P", "meals": [{"mealType": "Dinner"}], "confidence": "HIGH", "warnings": []}`,
			check: func(t *testing.T, plan CandidatePlan) {
				if plan.Confidence != "high" || plan.Meals[0].MealType != "dinner" {
					t.Errorf("confidence/mealType = %q/%q", plan.Confidence, plan.Meals[0].MealType)
				}
			},
		},
		{
			name: "numeric calorie range coerced",
			input: `{"planName": "P", "meals": [{"mealType": "snack", "caloriesRange": 250}], "confidence": "high", "warnings": []}`,
			check: func(t *testing.T, plan CandidatePlan) {
				if plan.Meals[0].CaloriesRange != "250" {
					t.Errorf("caloriesRange = %q, want 250", plan.Meals[0].CaloriesRange)
				}
			},
		},
		{
			name: "null collections removed",
			input: `{"planName": "P", "meals": [{"mealType": "lunch", "allowedFoods": null, "isOptional": null}], "confidence": "high", "warnings": []}`,
			check: func(t *testing.T, plan CandidatePlan) {
				if plan.Meals[0].IsOptional {
					t.Error("null isOptional should decode as false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, _, err := DecodeCandidatePlan([]byte(tt.input), nil)
			if err != nil {
				t.Fatalf("DecodeCandidatePlan: %v", err)
			}
			tt.check(t, plan)
		})
	}
}

func TestDecodeCandidatePlanRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "not JSON",
			input:   "I could not find a plan in this document.",
			wantMsg: "not valid JSON",
		},
		{
			name:    "missing planName",
			input:   `{"meals": [], "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "empty planName",
			input:   `{"planName": "", "meals": [], "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "missing meals",
			input:   `{"planName": "P", "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "meal without type",
			input:   `{"planName": "P", "meals": [{"name": "Almoço"}], "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "out-of-enum mealType",
			input:   `{"planName": "P", "meals": [{"mealType": "brunch"}], "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "out-of-enum confidence",
			input:   `{"planName": "P", "meals": [], "confidence": "certain", "warnings": []}`,
			wantMsg: "schema validation",
		},
		{
			name:    "option without description",
			input:   `{"planName": "P", "meals": [{"mealType": "lunch", "options": [{"number": 1}]}], "confidence": "high", "warnings": []}`,
			wantMsg: "schema validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeCandidatePlan([]byte(tt.input), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidatePlanJSON(t *testing.T) {
	if err := validatePlanJSON([]byte(`{"planName": "P", "meals": [], "confidence": "low", "warnings": []}`)); err != nil {
		t.Errorf("minimal valid plan rejected: %v", err)
	}
	if err := validatePlanJSON([]byte(`{"planName": "P"}`)); err == nil {
		t.Error("incomplete plan accepted")
	}
	if err := validatePlanJSON([]byte(`not json`)); err == nil {
		t.Error("non-JSON accepted")
	}
}

func TestBuildSystemPromptCoversGrammar(t *testing.T) {
	prompt := BuildSystemPrompt()
	for _, marker := range []string{
		"options",
		"allowedFoods",
		"optionalAddons",
		"requiredFoods",
		"Opção 1:",
		"Se tiver fome",
		"igual ao almoço",
		"em jejum",
		"Pré Treino",
		"snackTimeCategory",
	} {
		if !strings.Contains(prompt, marker) {
			t.Errorf("system prompt missing %q", marker)
		}
	}
}
