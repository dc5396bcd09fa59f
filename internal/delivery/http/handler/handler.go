package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/budget"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/config"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/request"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/response"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/monitoring"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/pipeline"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/selector"
)

// maxBatchSize caps a single run request.
const maxBatchSize = 5000

type Handler struct {
	coordinator *pipeline.Coordinator
	ledger      *budget.Ledger
	sources     *config.SourcePriorities
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

func NewHandler(
	coordinator *pipeline.Coordinator,
	ledger *budget.Ledger,
	sources *config.SourcePriorities,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		coordinator: coordinator,
		ledger:      ledger,
		sources:     sources,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleRunBatch drives a batch of documents through the pipeline and returns
// every decision plus run stats.
func (h *Handler) HandleRunBatch(w http.ResponseWriter, r *http.Request) {
	var req request.RunBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		h.writeJSONError(w, "documents is required", http.StatusBadRequest)
		return
	}
	if len(req.Documents) > maxBatchSize {
		h.writeJSONError(w, "batch too large", http.StatusRequestEntityTooLarge)
		return
	}

	batch := make([]entity.Document, 0, len(req.Documents))
	for _, p := range req.Documents {
		if p.ID == "" || p.Content == "" {
			h.writeJSONError(w, "every document needs an id and content", http.StatusBadRequest)
			return
		}
		priority := h.sources.PriorityFor(p.URL)
		if p.SourcePriority != nil {
			priority = *p.SourcePriority
		}
		batch = append(batch, entity.Document{
			ID:             p.ID,
			URL:            p.URL,
			Content:        p.Content,
			FetchedAt:      p.FetchedAt,
			SourcePriority: priority,
		})
	}

	decisions, stats, err := h.coordinator.Run(r.Context(), batch)
	if err != nil {
		// Invariant violations invalidate the run's accounting; nothing
		// partial is returned.
		h.logger.Error("pipeline run aborted", zap.Error(err))
		h.writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.metrics.SetBudgetRemaining(h.ledger.Report().Remaining)

	resp := response.RunBatchResponse{RunID: stats.RunID, Stats: stats}
	resp.Decisions = make([]response.DecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		resp.Decisions = append(resp.Decisions, response.FromDecision(d))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetBudget returns the current ledger snapshot.
func (h *Handler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ledger.Report())
}

// HandleSetLimit updates the daily budget ceiling.
func (h *Handler) HandleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req request.SetLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.ledger.SetDailyLimit(req.DailyLimit); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("daily budget limit updated", zap.Float64("daily_limit", req.DailyLimit))
	h.writeJSON(w, http.StatusOK, h.ledger.Report())
}

// HandleGetMode returns the active priority mode.
func (h *Handler) HandleGetMode(w http.ResponseWriter, r *http.Request) {
	m := h.coordinator.Mode()
	h.writeJSON(w, http.StatusOK, response.ModeResponse{
		Mode:           m.Name,
		TargetFraction: m.TargetFraction,
		ScoreFloor:     m.ScoreFloor,
	})
}

// HandleSetMode switches the priority mode for subsequent runs.
func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	var req request.SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mode, err := selector.ModeByName(req.Mode)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.coordinator.SetMode(mode)
	h.logger.Info("priority mode updated", zap.String("mode", mode.Name))
	h.writeJSON(w, http.StatusOK, response.ModeResponse{
		Mode:           mode.Name,
		TargetFraction: mode.TargetFraction,
		ScoreFloor:     mode.ScoreFloor,
	})
}

// HandleGetStats returns the stats of the most recent run.
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.coordinator.LastRun()
	if stats == nil {
		h.writeJSONError(w, "no completed runs", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
