package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/macrotrack/planparse/internal/entity"
	"github.com/macrotrack/planparse/internal/repository"
)

// Service renders a parsed plan as an XLSX workbook, one row per meal
// template, for sharing the structured result back to the nutritionist.
type Service struct {
	plans  repository.PlanRepository
	logger *slog.Logger
}

func NewService(plans repository.PlanRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{plans: plans, logger: logger}
}

// ExportPlanXLSX returns workbook bytes and a suggested filename.
func (s *Service) ExportPlanXLSX(ctx context.Context, planID uuid.UUID) ([]byte, string, error) {
	start := time.Now()

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, "", err
	}
	templates, err := s.plans.ListTemplates(ctx, planID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	const sheet = "Meal Plan"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}

	headers := []string{
		"Meal", "Name", "Scheduled Time", "Calories", "Protein",
		"Options", "Allowed Foods", "Optional Add-ons", "Notes",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range templates {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, string(t.Type))
		write(2, t.Name)
		if t.ScheduledTime != nil {
			write(3, *t.ScheduledTime)
		}
		write(4, calorieCell(t))
		if t.ProteinTarget != nil {
			write(5, *t.ProteinTarget+"g")
		}
		write(6, optionsCell(t.Options))
		write(7, strings.Join(t.AllowedFoods, ", "))
		write(8, strings.Join(t.OptionalAddons, ", "))
		write(9, notesCell(t))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("plan exported",
		"plan_id", planID, "templates", len(templates),
		"bytes", buf.Len(), "elapsed_ms", time.Since(start).Milliseconds(),
	)
	filename := fmt.Sprintf("%s.xlsx", sanitizeFilename(plan.Name))
	return buf.Bytes(), filename, nil
}

func calorieCell(t entity.MealTemplate) string {
	switch {
	case t.CaloriesMin == nil:
		return ""
	case t.CaloriesMax == nil || *t.CaloriesMin == *t.CaloriesMax:
		return fmt.Sprintf("%d kcal", *t.CaloriesMin)
	default:
		return fmt.Sprintf("%d-%d kcal", *t.CaloriesMin, *t.CaloriesMax)
	}
}

func optionsCell(opts []entity.MealOption) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, fmt.Sprintf("%d) %s", o.Number, o.Description))
	}
	return strings.Join(parts, "; ")
}

func notesCell(t entity.MealTemplate) string {
	var notes []string
	if t.IsOptional {
		notes = append(notes, "optional")
	}
	if t.IsPreWorkout {
		notes = append(notes, "pre-workout")
	}
	if t.ReferencesMeal != nil {
		notes = append(notes, "same rules as "+*t.ReferencesMeal)
	}
	if len(t.RequiredFoods) > 0 {
		notes = append(notes, "required: "+strings.Join(t.RequiredFoods, ", "))
	}
	return strings.Join(notes, "; ")
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "nutrition-plan"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
}
