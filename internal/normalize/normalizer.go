package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/macrotrack/planparse/internal/entity"
	"github.com/macrotrack/planparse/internal/llm"
)

// Fixed per-meal-type glyphs and display labels. Icons are derived, never
// authored; pre-workout overrides the type glyph unconditionally.
var mealIcons = map[entity.MealType]string{
	entity.MealBreakfast: "☀️",
	entity.MealLunch:     "🌤️",
	entity.MealDinner:    "🌙",
	entity.MealSnack:     "🍎",
	entity.MealFasting:   "💧",
}

var mealLabels = map[entity.MealType]string{
	entity.MealBreakfast: "Breakfast",
	entity.MealLunch:     "Lunch",
	entity.MealDinner:    "Dinner",
	entity.MealSnack:     "Snack",
	entity.MealFasting:   "Fasting",
}

const (
	preWorkoutIcon = "💪"
	fallbackIcon   = "🍽️"
)

// Normalize reconciles a candidate plan into canonical meal templates. It
// never fails: every field-level inconsistency becomes a warning and the
// field is defaulted, because partial structure beats no structure.
func Normalize(plan llm.CandidatePlan) ([]entity.MealTemplate, []string) {
	templates := make([]entity.MealTemplate, 0, len(plan.Meals))
	var warnings []string

	for i, meal := range plan.Meals {
		mealType, ok := entity.ParseMealType(meal.MealType)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("meal %d has unrecognized type %q, treated as snack", i+1, meal.MealType))
			mealType = entity.MealSnack
		}

		name := strings.TrimSpace(meal.Name)
		if name == "" {
			name = DefaultName(mealType)
		}

		calMin, calMax, calWarn := ParseCalorieRange(meal.CaloriesRange)
		if calWarn != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, calWarn))
		}

		snackCat, catWarn := parseSnackTimeCategory(meal.SnackTimeCategory)
		if catWarn != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, catWarn))
		}

		templates = append(templates, entity.MealTemplate{
			ID:                uuid.New(),
			Type:              mealType,
			Icon:              IconFor(mealType, meal.IsPreWorkout),
			Name:              name,
			Options:           normalizeOptions(meal.Options),
			RequiredFoods:     orEmpty(meal.RequiredFoods),
			AllowedFoods:      orEmpty(meal.AllowedFoods),
			OptionalAddons:    orEmpty(meal.OptionalAddons),
			CaloriesMin:       calMin,
			CaloriesMax:       calMax,
			ProteinTarget:     ParseProteinTarget(meal.ProteinRange),
			IsOptional:        meal.IsOptional,
			IsPreWorkout:      meal.IsPreWorkout,
			ScheduledTime:     optString(meal.ScheduledTime),
			ReferencesMeal:    optString(meal.ReferencesMeal),
			SnackTimeCategory: snackCat,
		})
	}

	warnings = append(warnings, checkCrossReferences(templates)...)
	return templates, warnings
}

// IconFor is the deterministic icon lookup by meal type.
func IconFor(mealType entity.MealType, preWorkout bool) string {
	if preWorkout {
		return preWorkoutIcon
	}
	if icon, ok := mealIcons[mealType]; ok {
		return icon
	}
	return fallbackIcon
}

// DefaultName derives a display name from the meal type.
func DefaultName(mealType entity.MealType) string {
	if label, ok := mealLabels[mealType]; ok {
		return label
	}
	return "Meal"
}

// ParseCalorieRange splits a free-text range on a hyphen. A single numeric
// token yields min == max; a non-numeric token yields null plus a warning,
// never an error.
func ParseCalorieRange(s string) (min, max *int, warning string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, ""
	}

	left, right, hasRange := strings.Cut(s, "-")
	min = parseIntToken(left)
	if hasRange {
		max = parseIntToken(right)
	} else {
		max = min
	}

	if min == nil || (hasRange && max == nil) {
		min, max = nil, nil
		warning = fmt.Sprintf("calorie value %q is not numeric and was ignored", s)
		return min, max, warning
	}
	if *min > *max {
		min, max = max, min
	}
	return min, max, warning
}

func parseIntToken(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

// ParseProteinTarget strips everything but digits, dots, and hyphens from the
// free-text protein field. A result without a single digit (empty, or prose
// punctuation like "protein-rich") is absent, not zero.
func ParseProteinTarget(s string) *string {
	hasDigit := false
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			return r
		case r == '.' || r == '-':
			return r
		}
		return -1
	}, s)
	if !hasDigit {
		return nil
	}
	return &cleaned
}

func parseSnackTimeCategory(s string) (*entity.SnackTimeCategory, string) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, ""
	}
	switch cat := entity.SnackTimeCategory(s); cat {
	case entity.SnackMorning, entity.SnackAfternoon, entity.SnackEvening:
		return &cat, ""
	}
	return nil, fmt.Sprintf("snack time category %q is not recognized and was dropped", s)
}

func normalizeOptions(opts []llm.CandidateOption) []entity.MealOption {
	out := make([]entity.MealOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, entity.MealOption{
			Number:      o.Number,
			Description: strings.TrimSpace(o.Description),
			Foods:       orEmpty(o.Foods),
		})
	}
	// option number is the authoritative display order, not array position
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// checkCrossReferences verifies referencesMeal targets against the plan's own
// meal names and type labels. A dangling reference is a warning; one bad
// cross-reference must not fail the whole plan.
func checkCrossReferences(templates []entity.MealTemplate) []string {
	known := make(map[string]struct{}, len(templates)*2)
	for _, t := range templates {
		known[strings.ToLower(t.Name)] = struct{}{}
		known[string(t.Type)] = struct{}{}
		known[strings.ToLower(DefaultName(t.Type))] = struct{}{}
	}

	var warnings []string
	for _, t := range templates {
		if t.ReferencesMeal == nil {
			continue
		}
		if _, ok := known[strings.ToLower(strings.TrimSpace(*t.ReferencesMeal))]; !ok {
			warnings = append(warnings, fmt.Sprintf("%s references meal %q which does not exist in this plan", t.Name, *t.ReferencesMeal))
		}
	}
	return warnings
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
