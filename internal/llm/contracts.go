package llm

import "context"

// Input carries either extracted plan text or an image reference. Exactly one
// is set; the grammar is applied identically to both, only the transport to
// the model differs.
type Input struct {
	Text     string
	ImageURL string
}

// CandidateOption is one numbered meal choice as emitted by the model.
type CandidateOption struct {
	Number      int      `json:"number"`
	Description string   `json:"description"`
	Foods       []string `json:"foods"`
}

// CandidateMeal is the loosely-typed meal shape emitted by the model, prior
// to normalization.
type CandidateMeal struct {
	MealType          string            `json:"mealType"`
	Name              string            `json:"name"`
	Options           []CandidateOption `json:"options"`
	RequiredFoods     []string          `json:"requiredFoods"`
	AllowedFoods      []string          `json:"allowedFoods"`
	OptionalAddons    []string          `json:"optionalAddons"`
	CaloriesRange     string            `json:"caloriesRange,omitempty"`
	ProteinRange      string            `json:"proteinRange,omitempty"`
	IsOptional        bool              `json:"isOptional"`
	IsPreWorkout      bool              `json:"isPreWorkout"`
	ScheduledTime     string            `json:"scheduledTime,omitempty"`
	ReferencesMeal    string            `json:"referencesMeal,omitempty"`
	SnackTimeCategory string            `json:"snackTimeCategory,omitempty"`
}

// CandidatePlan is the structurally validated model output.
type CandidatePlan struct {
	PlanName   string          `json:"planName"`
	Meals      []CandidateMeal `json:"meals"`
	Confidence string          `json:"confidence"`
	Warnings   []string        `json:"warnings"`
}

// PlanInterpreter is the interface the pipeline depends on. The model call is
// behind it so extraction behavior can be exercised against canned outputs.
type PlanInterpreter interface {
	Interpret(ctx context.Context, in Input) (CandidatePlan, []byte /*rawJSON*/, error)
}
