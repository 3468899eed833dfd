package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macrotrack/planparse/constants"
	"github.com/macrotrack/planparse/internal/common"
	"github.com/macrotrack/planparse/internal/entity"
)

// PlanRecord is a nutrition plan row without its templates.
type PlanRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	IsActive    bool
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// PlanRepository persists parsed plans. CreateDraft writes the upload record,
// the inactive plan row, and all templates in one transaction so a failed
// parse leaves no partial rows behind.
type PlanRepository interface {
	CreateDraft(ctx context.Context, userID uuid.UUID, fileURL string, plan *entity.ParsedPlan) error
	Activate(ctx context.Context, planID, userID uuid.UUID) error
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanRecord, error)
	ListTemplates(ctx context.Context, planID uuid.UUID) ([]entity.MealTemplate, error)
}

type planRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPlanRepository(pool *pgxpool.Pool, logger *slog.Logger) PlanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &planRepository{pool: pool, logger: logger}
}

func (r *planRepository) CreateDraft(ctx context.Context, userID uuid.UUID, fileURL string, plan *entity.ParsedPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin draft tx")
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && rerr != pgx.ErrTxClosed {
			r.logger.Warn("plan draft rollback failed", "error", rerr)
		}
	}()

	fileName := fileURL
	if i := strings.LastIndexByte(fileURL, '/'); i >= 0 && i+1 < len(fileURL) {
		fileName = fileURL[i+1:]
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO plan_uploads (id, user_id, file_name, file_path, status)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), userID, fileName, fileURL, constants.UploadStatusParsed,
	)
	if err != nil {
		r.logger.Error("plan_uploads insert failed", "user_id", userID, "error", err)
		return common.WrapError(err, "insert plan upload")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO nutrition_plans (id, user_id, name, is_active, confirmed_at)
		VALUES ($1, $2, $3, false, NULL)`,
		plan.PlanID, userID, plan.PlanName,
	)
	if err != nil {
		r.logger.Error("nutrition_plans insert failed", "plan_id", plan.PlanID, "error", err)
		return common.WrapError(err, "insert nutrition plan")
	}

	batch := &pgx.Batch{}
	for _, t := range plan.MealTemplates {
		options, err := json.Marshal(t.Options)
		if err != nil {
			return common.WrapError(err, "marshal meal options")
		}
		var macros []byte
		if t.ProteinTarget != nil {
			macros, err = json.Marshal(map[string]string{"protein": *t.ProteinTarget})
			if err != nil {
				return common.WrapError(err, "marshal macros")
			}
		}
		batch.Queue(`
			INSERT INTO meal_templates (
				id, user_id, plan_id, type, name, options,
				required_foods, allowed_foods, optional_addons,
				is_optional, is_pre_workout, scheduled_time,
				references_meal, snack_time_category,
				calories_min, calories_max, macros
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			t.ID, userID, plan.PlanID, string(t.Type), t.Name, options,
			t.RequiredFoods, t.AllowedFoods, t.OptionalAddons,
			t.IsOptional, t.IsPreWorkout, t.ScheduledTime,
			t.ReferencesMeal, t.SnackTimeCategory,
			t.CaloriesMin, t.CaloriesMax, macros,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Error("meal_templates insert failed", "plan_id", plan.PlanID, "error", err)
			return common.WrapError(err, "insert meal templates")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapError(err, "commit draft tx")
	}
	r.logger.Info("plan draft persisted",
		"plan_id", plan.PlanID, "user_id", userID,
		"status", constants.PlanStatusDraft, "templates", len(plan.MealTemplates))
	return nil
}

// Activate flips the draft to active. Any previously active plan for the user
// is deactivated in the same transaction; one active plan at a time.
func (r *planRepository) Activate(ctx context.Context, planID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin activate tx")
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && rerr != pgx.ErrTxClosed {
			r.logger.Warn("plan activate rollback failed", "error", rerr)
		}
	}()

	_, err = tx.Exec(ctx, `
		UPDATE nutrition_plans SET is_active = false
		WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, planID,
	)
	if err != nil {
		return common.WrapError(err, "deactivate previous plans")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE nutrition_plans SET is_active = true, confirmed_at = now()
		WHERE id = $1 AND user_id = $2`,
		planID, userID,
	)
	if err != nil {
		return common.WrapError(err, "activate plan")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("plan %s for user %s: %w", planID, userID, common.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapError(err, "commit activate tx")
	}
	r.logger.Info("plan activated", "plan_id", planID, "user_id", userID)
	return nil
}

func (r *planRepository) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanRecord, error) {
	var rec PlanRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, is_active, confirmed_at, created_at
		FROM nutrition_plans WHERE id = $1`,
		planID,
	).Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.IsActive, &rec.ConfirmedAt, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("plan %s: %w", planID, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("get plan failed", "plan_id", planID, "error", err)
		return nil, common.WrapError(err, "get plan")
	}
	return &rec, nil
}

func (r *planRepository) ListTemplates(ctx context.Context, planID uuid.UUID) ([]entity.MealTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type, name, options,
		       required_foods, allowed_foods, optional_addons,
		       is_optional, is_pre_workout, scheduled_time,
		       references_meal, snack_time_category,
		       calories_min, calories_max, macros
		FROM meal_templates WHERE plan_id = $1
		ORDER BY created_at, id`,
		planID,
	)
	if err != nil {
		r.logger.Error("list templates failed", "plan_id", planID, "error", err)
		return nil, common.WrapError(err, "list meal templates")
	}
	defer rows.Close()

	var templates []entity.MealTemplate
	for rows.Next() {
		var (
			t        entity.MealTemplate
			mealType string
			options  []byte
			snackCat *string
			macros   []byte
		)
		if err := rows.Scan(
			&t.ID, &mealType, &t.Name, &options,
			&t.RequiredFoods, &t.AllowedFoods, &t.OptionalAddons,
			&t.IsOptional, &t.IsPreWorkout, &t.ScheduledTime,
			&t.ReferencesMeal, &snackCat,
			&t.CaloriesMin, &t.CaloriesMax, &macros,
		); err != nil {
			return nil, common.WrapError(err, "scan meal template")
		}
		t.Type = entity.MealType(mealType)
		if len(options) > 0 {
			if err := json.Unmarshal(options, &t.Options); err != nil {
				return nil, common.WrapError(err, "unmarshal meal options")
			}
		}
		if t.Options == nil {
			t.Options = []entity.MealOption{}
		}
		if snackCat != nil {
			cat := entity.SnackTimeCategory(*snackCat)
			t.SnackTimeCategory = &cat
		}
		if len(macros) > 0 {
			var m map[string]string
			if err := json.Unmarshal(macros, &m); err == nil {
				if p, ok := m["protein"]; ok {
					t.ProteinTarget = &p
				}
			}
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
