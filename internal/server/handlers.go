package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/macrotrack/planparse/constants"
	"github.com/macrotrack/planparse/internal/common"
	"github.com/macrotrack/planparse/internal/pipeline"
	"github.com/macrotrack/planparse/internal/repository"
)

type parsePlanRequest struct {
	FileURL  string `json:"fileUrl"`
	UserID   string `json:"userId"`
	FileType string `json:"fileType"`
}

func (s *Server) handleParsePlan(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodPost) {
		return
	}

	var req parsePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON request body", err.Error())
		return
	}

	v := common.NewValidator()
	v.Field("fileUrl", req.FileURL, common.Required)
	v.Field("userId", req.UserID, common.Required, common.UUID)
	v.Field("fileType", req.FileType, common.Required, common.OneOf(constants.FileKinds...))
	if v.HasErrors() {
		s.writeError(w, http.StatusBadRequest, "missing or invalid fields: fileUrl, userId, fileType", v.ErrorMessage())
		return
	}
	if _, err := url.ParseRequestURI(req.FileURL); err != nil {
		s.writeError(w, http.StatusBadRequest, "fileUrl is not a fetchable URL", err.Error())
		return
	}

	kind, _ := constants.ParseKind(req.FileType)
	userID, _ := uuid.Parse(req.UserID)

	s.logger.Info("parse request received",
		"user_id", userID, "file_type", kind,
		"file_url", common.Truncate(req.FileURL, 100),
	)

	plan, err := s.processor.ParsePlan(r.Context(), pipeline.Request{
		FileURL: req.FileURL,
		UserID:  userID,
		Kind:    kind,
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, warningsOrEmpty(plan))
}

type confirmPlanRequest struct {
	PlanID string `json:"planId"`
	UserID string `json:"userId"`
}

func (s *Server) handleConfirmPlan(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodPost) {
		return
	}

	var req confirmPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON request body", err.Error())
		return
	}

	v := common.NewValidator()
	v.Field("planId", req.PlanID, common.Required, common.UUID)
	v.Field("userId", req.UserID, common.Required, common.UUID)
	if v.HasErrors() {
		s.writeError(w, http.StatusBadRequest, "missing or invalid fields: planId, userId", v.ErrorMessage())
		return
	}

	planID, _ := uuid.Parse(req.PlanID)
	userID, _ := uuid.Parse(req.UserID)

	if err := s.plans.Activate(r.Context(), planID, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "plan not found", "")
			return
		}
		s.logger.Error("confirm plan failed", "plan_id", planID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not confirm the plan", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"planId": planID.String(),
		"status": string(constants.PlanStatusActive),
	})
}

func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodGet) {
		return
	}

	planID, err := uuid.Parse(r.URL.Query().Get("planId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "planId query parameter must be a valid UUID", err.Error())
		return
	}

	data, filename, err := s.exporter.ExportPlanXLSX(r.Context(), planID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "plan not found", "")
			return
		}
		s.logger.Error("export plan failed", "plan_id", planID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not export the plan", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("export write failed", "plan_id", planID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodGet) {
		return
	}
	if s.pool != nil {
		if err := repository.HealthCheck(r.Context(), s.pool, 0, s.logger); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unreachable", err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writePipelineError maps failure kinds to HTTP statuses. The error field is
// always a short, user-presentable sentence; stage detail goes in details.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch perr.Kind {
	case pipeline.KindUnsupported:
		status = http.StatusBadRequest
	case pipeline.KindExtraction, pipeline.KindInterpretation:
		status = http.StatusUnprocessableEntity
	case pipeline.KindPersistence:
		status = http.StatusInternalServerError
	}

	details := ""
	if perr.Err != nil {
		details = common.Truncate(perr.Err.Error(), 500)
	}
	s.writeError(w, status, perr.Message, details)
}
