package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/macrotrack/planparse/constants"
	"github.com/macrotrack/planparse/internal/entity"
	"github.com/macrotrack/planparse/internal/extract"
	"github.com/macrotrack/planparse/internal/llm"
	"github.com/macrotrack/planparse/internal/normalize"
	"github.com/macrotrack/planparse/internal/repository"
)

// Stage names for logging. The machine is linear; any failure goes straight
// to FAILED with the originating kind attached.
type Stage string

const (
	StageReceived        Stage = "RECEIVED"
	StageExtracting      Stage = "EXTRACTING"
	StageInterpreting    Stage = "INTERPRETING"
	StageNormalizing     Stage = "NORMALIZING"
	StagePersistingDraft Stage = "PERSISTING_DRAFT"
	StageDone            Stage = "DONE"
)

// Request is one parse unit of work. Stateless; safe to run with arbitrary
// concurrency.
type Request struct {
	FileURL string
	UserID  uuid.UUID
	Kind    constants.FileKind
}

// Processor sequences fetch, extraction, interpretation, normalization, and
// draft persistence for one document.
type Processor struct {
	logger      *slog.Logger
	fetcher     extract.Fetcher
	extractor   extract.TextExtractor
	interpreter llm.PlanInterpreter
	plans       repository.PlanRepository
}

func NewProcessor(
	logger *slog.Logger,
	fetcher extract.Fetcher,
	extractor extract.TextExtractor,
	interpreter llm.PlanInterpreter,
	plans repository.PlanRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:      logger,
		fetcher:     fetcher,
		extractor:   extractor,
		interpreter: interpreter,
		plans:       plans,
	}
}

// ParsePlan runs the full pipeline and returns the normalized plan with its
// draft already persisted (inactive) for the later confirmation step. On any
// failure the returned error is a *Error and no draft rows remain.
func (p *Processor) ParsePlan(ctx context.Context, req Request) (*entity.ParsedPlan, error) {
	start := time.Now()
	p.logger.Info("pipeline.received", "stage", StageReceived, "kind", req.Kind, "user_id", req.UserID)

	var (
		input        llm.Input
		extractWarns []string
	)
	switch req.Kind {
	case constants.KindImage:
		// images go straight to the interpreter; no extraction stage
		input.ImageURL = req.FileURL

	case constants.KindPDF, constants.KindText:
		p.logger.Info("pipeline.extracting", "stage", StageExtracting, "kind", req.Kind)
		data, err := p.fetcher.Fetch(ctx, req.FileURL)
		if err != nil {
			p.logger.Error("pipeline.fetch.failed", "stage", StageExtracting, "error", err)
			return nil, failf(KindExtraction, err, "could not fetch the uploaded document")
		}
		res, err := p.extractor.Extract(ctx, data, req.Kind)
		if err != nil {
			p.logger.Error("pipeline.extract.failed", "stage", StageExtracting, "error", err)
			if errors.Is(err, extract.ErrOCRUnconfigured) {
				// remediation text must reach the end user verbatim
				return nil, failf(KindExtraction, err, "%s", extract.ErrOCRUnconfigured.Error())
			}
			return nil, failf(KindExtraction, err, "could not extract text from the %s document", req.Kind)
		}
		p.logger.Info("pipeline.extract.ok",
			"stage", StageExtracting, "method", res.Method,
			"pages", res.Pages, "chars", len(res.Text),
			"extract_ms", res.Duration.Milliseconds(),
		)
		input.Text = res.Text
		extractWarns = res.Warnings

	default:
		return nil, failf(KindUnsupported, nil, "unsupported file type %q; expected pdf, image, or text", req.Kind)
	}

	p.logger.Info("pipeline.interpreting", "stage", StageInterpreting, "has_image", input.ImageURL != "")
	candidate, _, err := p.interpreter.Interpret(ctx, input)
	if err != nil {
		p.logger.Error("pipeline.interpret.failed", "stage", StageInterpreting, "error", err)
		return nil, failf(KindInterpretation, err, "could not understand the nutrition plan document")
	}

	p.logger.Info("pipeline.normalizing", "stage", StageNormalizing, "meals", len(candidate.Meals))
	templates, normWarns := normalize.Normalize(candidate)

	warnings := make([]string, 0, len(candidate.Warnings)+len(extractWarns)+len(normWarns))
	warnings = append(warnings, candidate.Warnings...)
	warnings = append(warnings, extractWarns...)
	warnings = append(warnings, normWarns...)

	parsed := &entity.ParsedPlan{
		PlanID:        uuid.New(),
		PlanName:      candidate.PlanName,
		MealTemplates: templates,
		Confidence:    entity.Confidence(candidate.Confidence),
		Warnings:      warnings,
	}

	// persistence strictly after normalization; a failed interpretation must
	// leave no draft rows behind
	p.logger.Info("pipeline.persisting_draft", "stage", StagePersistingDraft, "plan_id", parsed.PlanID)
	if err := p.plans.CreateDraft(ctx, req.UserID, req.FileURL, parsed); err != nil {
		p.logger.Error("pipeline.persist.failed", "stage", StagePersistingDraft, "error", err)
		return nil, failf(KindPersistence, err, "the plan was parsed but could not be saved")
	}

	p.logger.Info("pipeline.done",
		"stage", StageDone,
		"plan_id", parsed.PlanID,
		"templates", len(parsed.MealTemplates),
		"confidence", parsed.Confidence,
		"warnings", len(parsed.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return parsed, nil
}
