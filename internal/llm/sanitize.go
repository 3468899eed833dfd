package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

var topLevelKeys = map[string]struct{}{
	"planName": {}, "meals": {}, "confidence": {}, "warnings": {},
}

var mealKeys = map[string]struct{}{
	"mealType": {}, "name": {}, "options": {}, "requiredFoods": {},
	"allowedFoods": {}, "optionalAddons": {}, "caloriesRange": {},
	"proteinRange": {}, "isOptional": {}, "isPreWorkout": {},
	"scheduledTime": {}, "referencesMeal": {}, "snackTimeCategory": {},
}

var optionKeys = map[string]struct{}{
	"number": {}, "description": {}, "foods": {},
}

// NormalizeCandidateJSON applies lenient cleanup to the raw model output so
// well-meaning-but-sloppy responses still validate:
//   - removes unknown keys at every level
//   - drops nulls where the schema wants an array or boolean
//   - coerces numeric range fields to strings
//   - lowercases enum-ish tags and trims strings
//
// It never invents required structure; a response missing planName or meals
// still fails validation afterwards.
func NormalizeCandidateJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for k := range m {
		if _, ok := topLevelKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	if v, ok := m["planName"].(string); ok {
		m["planName"] = strings.TrimSpace(v)
	}
	if v, ok := m["confidence"].(string); ok {
		m["confidence"] = strings.ToLower(strings.TrimSpace(v))
	}
	if w, ok := m["warnings"]; !ok || w == nil {
		m["warnings"] = []any{}
		dropped = append(dropped, "warnings(defaulted)")
	}

	if meals, ok := m["meals"].([]any); ok {
		for i, raw := range meals {
			meal, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			dropped = append(dropped, sanitizeMeal(meal, i)...)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.interpret.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeMeal(meal map[string]any, idx int) []string {
	var dropped []string
	tag := func(k string) string { return fmt.Sprintf("meals[%d].%s", idx, k) }

	for k := range meal {
		if _, ok := mealKeys[k]; !ok {
			delete(meal, k)
			dropped = append(dropped, tag(k)+"(unknown)")
		}
	}

	for _, k := range []string{"mealType", "snackTimeCategory"} {
		if v, ok := meal[k].(string); ok {
			meal[k] = strings.ToLower(strings.TrimSpace(v))
		}
	}
	if v, ok := meal["name"]; ok && v == nil {
		delete(meal, "name")
		dropped = append(dropped, tag("name")+"(null)")
	}

	// null collections and booleans fail the schema; absent ones do not.
	for _, k := range []string{"options", "requiredFoods", "allowedFoods", "optionalAddons", "isOptional", "isPreWorkout"} {
		if v, ok := meal[k]; ok && v == nil {
			delete(meal, k)
			dropped = append(dropped, tag(k)+"(null)")
		}
	}

	// range fields occasionally come back as bare numbers
	for _, k := range []string{"caloriesRange", "proteinRange"} {
		if f, ok := meal[k].(float64); ok {
			meal[k] = formatNumber(f)
			dropped = append(dropped, tag(k)+"(number)")
		}
	}

	if opts, ok := meal["options"].([]any); ok {
		for j, rawOpt := range opts {
			opt, ok := rawOpt.(map[string]any)
			if !ok {
				continue
			}
			for k := range opt {
				if _, known := optionKeys[k]; !known {
					delete(opt, k)
					dropped = append(dropped, fmt.Sprintf("meals[%d].options[%d].%s(unknown)", idx, j, k))
				}
			}
			if v, ok := opt["foods"]; ok && v == nil {
				delete(opt, "foods")
				dropped = append(dropped, fmt.Sprintf("meals[%d].options[%d].foods(null)", idx, j))
			}
		}
	}
	return dropped
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
