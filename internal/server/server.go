package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macrotrack/planparse/internal/entity"
	"github.com/macrotrack/planparse/internal/export"
	"github.com/macrotrack/planparse/internal/pipeline"
	"github.com/macrotrack/planparse/internal/repository"
)

// Server is the HTTP surface of the parsing pipeline. It is called from a
// browser-hosted client, so every route answers pre-flight requests
// permissively.
type Server struct {
	logger    *slog.Logger
	processor *pipeline.Processor
	plans     repository.PlanRepository
	exporter  *export.Service
	pool      *pgxpool.Pool
}

func New(
	logger *slog.Logger,
	processor *pipeline.Processor,
	plans repository.PlanRepository,
	exporter *export.Service,
	pool *pgxpool.Pool,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		processor: processor,
		plans:     plans,
		exporter:  exporter,
		pool:      pool,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/parse-plan", s.handleParsePlan)
	mux.HandleFunc("/confirm-plan", s.handleConfirmPlan)
	mux.HandleFunc("/export-plan", s.handleExportPlan)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
}

// preflight handles OPTIONS and enforces the expected method. Returns false
// when the request was already answered.
func (s *Server) preflight(w http.ResponseWriter, r *http.Request, method string) bool {
	enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != method {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return false
	}
	return true
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, errorResponse{
		Error:     message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// warningsOrEmpty keeps the warnings field an array on the wire, never null.
func warningsOrEmpty(plan *entity.ParsedPlan) *entity.ParsedPlan {
	if plan.Warnings == nil {
		plan.Warnings = []string{}
	}
	return plan
}
