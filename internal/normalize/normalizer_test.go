package normalize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/macrotrack/planparse/internal/entity"
	"github.com/macrotrack/planparse/internal/llm"
)

func TestParseCalorieRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin *int
		wantMax *int
		warns   bool
	}{
		{name: "range", input: "400-500", wantMin: intPtr(400), wantMax: intPtr(500)},
		{name: "range with spaces", input: " 400 - 500 ", wantMin: intPtr(400), wantMax: intPtr(500)},
		{name: "single value", input: "450", wantMin: intPtr(450), wantMax: intPtr(450)},
		{name: "empty", input: ""},
		{name: "reversed range swapped", input: "500-400", wantMin: intPtr(400), wantMax: intPtr(500)},
		{name: "non-numeric", input: "about 400", warns: true},
		{name: "half-numeric range", input: "400-lots", warns: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, warn := ParseCalorieRange(tt.input)
			if !intPtrEq(min, tt.wantMin) || !intPtrEq(max, tt.wantMax) {
				t.Errorf("ParseCalorieRange(%q) = (%v, %v), want (%v, %v)",
					tt.input, fmtIntPtr(min), fmtIntPtr(max), fmtIntPtr(tt.wantMin), fmtIntPtr(tt.wantMax))
			}
			if (warn != "") != tt.warns {
				t.Errorf("ParseCalorieRange(%q) warning = %q, want warning: %v", tt.input, warn, tt.warns)
			}
		})
	}
}

func TestParseProteinTarget(t *testing.T) {
	tests := []struct {
		input string
		want  *string
	}{
		{input: "30g", want: strPtr("30")},
		{input: "25-30g", want: strPtr("25-30")},
		{input: "~32.5 g protein", want: strPtr("32.5")},
		{input: ""},
		{input: "grams"},
		{input: "protein-rich"},
		{input: "approx."},
	}

	for _, tt := range tests {
		got := ParseProteinTarget(tt.input)
		if !strPtrEq(got, tt.want) {
			t.Errorf("ParseProteinTarget(%q) = %v, want %v", tt.input, fmtStrPtr(got), fmtStrPtr(tt.want))
		}
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		name       string
		mealType   entity.MealType
		preWorkout bool
		want       string
	}{
		{name: "breakfast", mealType: entity.MealBreakfast, want: "☀️"},
		{name: "lunch", mealType: entity.MealLunch, want: "🌤️"},
		{name: "dinner", mealType: entity.MealDinner, want: "🌙"},
		{name: "snack", mealType: entity.MealSnack, want: "🍎"},
		{name: "fasting", mealType: entity.MealFasting, want: "💧"},
		{name: "pre-workout overrides type", mealType: entity.MealLunch, preWorkout: true, want: "💪"},
		{name: "unknown type falls back", mealType: entity.MealType("brunch"), want: "🍽️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IconFor(tt.mealType, tt.preWorkout); got != tt.want {
				t.Errorf("IconFor(%q, %v) = %q, want %q", tt.mealType, tt.preWorkout, got, tt.want)
			}
		})
	}
}

func TestNormalizeFullMeal(t *testing.T) {
	plan := llm.CandidatePlan{
		PlanName: "Cut Phase",
		Meals: []llm.CandidateMeal{{
			MealType: "lunch",
			Name:     "Almoço",
			Options: []llm.CandidateOption{
				{Number: 2, Description: "Fish with rice", Foods: []string{"fish", "rice"}},
				{Number: 1, Description: "Chicken with sweet potato"},
			},
			AllowedFoods:  []string{"salad"},
			CaloriesRange: "600-700",
			ProteinRange:  "40g",
			ScheduledTime: "12:30",
		}},
		Confidence: "high",
	}

	templates, warnings := Normalize(plan)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}

	tpl := templates[0]
	if tpl.Type != entity.MealLunch || tpl.Name != "Almoço" || tpl.Icon != "🌤️" {
		t.Errorf("type/name/icon = %q/%q/%q", tpl.Type, tpl.Name, tpl.Icon)
	}
	if tpl.CaloriesMin == nil || *tpl.CaloriesMin != 600 || tpl.CaloriesMax == nil || *tpl.CaloriesMax != 700 {
		t.Errorf("calories = %v-%v, want 600-700", fmtIntPtr(tpl.CaloriesMin), fmtIntPtr(tpl.CaloriesMax))
	}
	if tpl.ProteinTarget == nil || *tpl.ProteinTarget != "40" {
		t.Errorf("protein target = %v, want 40", fmtStrPtr(tpl.ProteinTarget))
	}
	if tpl.ScheduledTime == nil || *tpl.ScheduledTime != "12:30" {
		t.Errorf("scheduled time = %v, want 12:30", fmtStrPtr(tpl.ScheduledTime))
	}
	// option number wins over array position
	if tpl.Options[0].Number != 1 || tpl.Options[1].Number != 2 {
		t.Errorf("options not sorted by number: %+v", tpl.Options)
	}
	// absent collections come back as empty arrays, never nil
	if tpl.RequiredFoods == nil || tpl.OptionalAddons == nil || tpl.Options[1].Foods == nil {
		t.Error("collections must be empty, not nil")
	}
}

func TestNormalizeUnrecognizedType(t *testing.T) {
	plan := llm.CandidatePlan{
		Meals: []llm.CandidateMeal{{MealType: "brunch"}},
	}

	templates, warnings := Normalize(plan)
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	if templates[0].Type != entity.MealSnack {
		t.Errorf("type = %q, want snack", templates[0].Type)
	}
	if templates[0].Name != "Snack" {
		t.Errorf("defaulted name = %q, want Snack", templates[0].Name)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "brunch") {
		t.Errorf("warnings = %v, want one mentioning brunch", warnings)
	}
}

func TestNormalizeBadFieldsBecomeWarnings(t *testing.T) {
	plan := llm.CandidatePlan{
		Meals: []llm.CandidateMeal{{
			MealType:          "snack",
			Name:              "Lanche",
			CaloriesRange:     "a few hundred",
			SnackTimeCategory: "midnight",
		}},
	}

	templates, warnings := Normalize(plan)
	tpl := templates[0]
	if tpl.CaloriesMin != nil || tpl.CaloriesMax != nil {
		t.Errorf("calories should be dropped, got %v-%v", fmtIntPtr(tpl.CaloriesMin), fmtIntPtr(tpl.CaloriesMax))
	}
	if tpl.SnackTimeCategory != nil {
		t.Errorf("snack category should be dropped, got %v", *tpl.SnackTimeCategory)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want 2", warnings)
	}
}

func TestNormalizePreWorkout(t *testing.T) {
	plan := llm.CandidatePlan{
		Meals: []llm.CandidateMeal{{
			MealType:      "snack",
			Name:          "Pré Treino",
			IsPreWorkout:  true,
			ScheduledTime: "16:00",
		}},
	}

	templates, _ := Normalize(plan)
	if templates[0].Icon != "💪" {
		t.Errorf("icon = %q, want pre-workout glyph", templates[0].Icon)
	}
	if !templates[0].IsPreWorkout {
		t.Error("IsPreWorkout flag lost")
	}
}

func TestNormalizeCrossReferences(t *testing.T) {
	t.Run("reference to existing meal", func(t *testing.T) {
		plan := llm.CandidatePlan{
			Meals: []llm.CandidateMeal{
				{MealType: "lunch", Name: "Almoço"},
				{MealType: "dinner", Name: "Jantar", ReferencesMeal: "almoço"},
			},
		}
		_, warnings := Normalize(plan)
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
	})

	t.Run("reference by type label", func(t *testing.T) {
		plan := llm.CandidatePlan{
			Meals: []llm.CandidateMeal{
				{MealType: "lunch"},
				{MealType: "dinner", ReferencesMeal: "lunch"},
			},
		}
		_, warnings := Normalize(plan)
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
	})

	t.Run("dangling reference warns", func(t *testing.T) {
		plan := llm.CandidatePlan{
			Meals: []llm.CandidateMeal{
				{MealType: "dinner", Name: "Jantar", ReferencesMeal: "second lunch"},
			},
		}
		_, warnings := Normalize(plan)
		if len(warnings) != 1 || !strings.Contains(warnings[0], "second lunch") {
			t.Errorf("warnings = %v, want one about the dangling reference", warnings)
		}
	})
}

func TestNormalizationIsIdempotent(t *testing.T) {
	// defaulting and numeric parsing are pure: feeding a result back through
	// the same rule yields the identical value
	if once := ParseProteinTarget("25-30g"); once != nil {
		if twice := ParseProteinTarget(*once); twice == nil || *twice != *once {
			t.Errorf("protein reparse = %v, want %v", fmtStrPtr(twice), *once)
		}
	} else {
		t.Fatal("ParseProteinTarget returned nil")
	}

	min, max, _ := ParseCalorieRange("400-500")
	min2, max2, warn := ParseCalorieRange(fmt.Sprintf("%d-%d", *min, *max))
	if warn != "" || *min2 != *min || *max2 != *max {
		t.Errorf("calorie reparse = %d-%d (%q), want %d-%d", *min2, *max2, warn, *min, *max)
	}

	if DefaultName(entity.MealLunch) != DefaultName(entity.MealType(strings.ToLower(DefaultName(entity.MealLunch)))) {
		t.Error("name defaulting not stable across round-trip")
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func fmtStrPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
