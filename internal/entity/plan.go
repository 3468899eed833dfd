package entity

import (
	"strings"

	"github.com/google/uuid"
)

// MealType is the closed set of meal slots a plan can describe.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealFasting   MealType = "fasting"
)

// ParseMealType validates a meal-type tag from an interpreter response.
func ParseMealType(s string) (MealType, bool) {
	switch MealType(strings.ToLower(strings.TrimSpace(s))) {
	case MealBreakfast:
		return MealBreakfast, true
	case MealLunch:
		return MealLunch, true
	case MealDinner:
		return MealDinner, true
	case MealSnack:
		return MealSnack, true
	case MealFasting:
		return MealFasting, true
	}
	return "", false
}

// Confidence is the interpreter's self-assessed extraction reliability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SnackTimeCategory places a snack within the day.
type SnackTimeCategory string

const (
	SnackMorning   SnackTimeCategory = "morning"
	SnackAfternoon SnackTimeCategory = "afternoon"
	SnackEvening   SnackTimeCategory = "evening"
)

// MealOption is one numbered alternative within a meal slot, mutually
// exclusive with its siblings. Number is the authoritative display order.
type MealOption struct {
	Number      int      `json:"number"`
	Description string   `json:"description"`
	Foods       []string `json:"foods"`
}

// MealTemplate is the normalized description of one meal slot's rules.
type MealTemplate struct {
	ID                uuid.UUID          `json:"id"`
	Type              MealType           `json:"type"`
	Icon              string             `json:"icon"`
	Name              string             `json:"name"`
	Options           []MealOption       `json:"options"`
	RequiredFoods     []string           `json:"requiredFoods"`
	AllowedFoods      []string           `json:"allowedFoods"`
	OptionalAddons    []string           `json:"optionalAddons"`
	CaloriesMin       *int               `json:"caloriesMin"`
	CaloriesMax       *int               `json:"caloriesMax"`
	ProteinTarget     *string            `json:"proteinTarget"`
	IsOptional        bool               `json:"isOptional"`
	IsPreWorkout      bool               `json:"isPreWorkout"`
	ScheduledTime     *string            `json:"scheduledTime"`
	ReferencesMeal    *string            `json:"referencesMeal"`
	SnackTimeCategory *SnackTimeCategory `json:"snackTimeCategory"`
}

// ParsedPlan is the pipeline's final output. Ownership passes to the caller;
// the draft row persisted alongside it stays inactive until confirmation.
type ParsedPlan struct {
	PlanID        uuid.UUID      `json:"planId"`
	PlanName      string         `json:"planName"`
	MealTemplates []MealTemplate `json:"mealTemplates"`
	Confidence    Confidence     `json:"confidence"`
	Warnings      []string       `json:"warnings"`
}
