package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/harrier/internal/credit"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/repository"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	service *credit.Service
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	version string
}

// NewHandler creates a new API handler.
func NewHandler(service *credit.Service, repo domain.Repository, cache domain.Cache, bus domain.EventBus, version string) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		cache:   cache,
		bus:     bus,
		version: version,
	}
}

// CheckCredit handles POST /api/v1/credit/check.
func (h *Handler) CheckCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreditCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := h.service.CheckCredit(ctx, &req)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": vErr.Error(),
				"field": vErr.Field,
			})
		case errors.Is(err, domain.ErrModelUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "scoring model not available",
			})
		default:
			slog.Error("credit check failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "credit check failed",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetCreditFactors handles GET /api/v1/credit/factors. It exposes the
// model's global importance ranking and training metrics.
func (h *Handler) GetCreditFactors(w http.ResponseWriter, r *http.Request) {
	info := h.service.ModelInfo()
	if !info.Loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "scoring model not available",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model":         info.Name,
		"version":       info.Version,
		"top_factors":   info.TopFactors,
		"model_metrics": info.Metrics,
	})
}

// GetRules handles GET /api/v1/rules. It returns the active rule
// configuration document.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.RuleConfig()
	if cfg == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no rule configuration loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateRules handles PUT /api/v1/rules. The posted document replaces the
// active configuration wholesale; there is no partial merge.
func (h *Handler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cfg domain.RuleConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.service.ReplaceRuleConfig(ctx, &cfg); err != nil {
		slog.Error("failed to replace rule configuration", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to replace rule configuration",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "rule configuration replaced",
		"version": cfg.Version,
	})
}

// GetDecision handles GET /api/v1/credit/decisions/{id}.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "decision id is required",
		})
		return
	}

	rec, err := h.service.GetDecision(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "decision not found",
			})
			return
		}
		slog.Error("failed to get decision", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get decision",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListClientApplications handles GET /api/v1/clients/{id}/applications.
// An optional since query parameter (RFC 3339) bounds the window; the
// default is the last 90 days.
func (h *Handler) ListClientApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := chi.URLParam(r, "id")

	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "client id is required",
		})
		return
	}

	since := time.Now().AddDate(0, 0, -90)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "since must be RFC 3339",
			})
			return
		}
		since = parsed
	}

	apps, err := h.service.ListApplications(ctx, clientID, since)
	if err != nil {
		slog.Error("failed to list applications", "client_id", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list applications",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id":    clientID,
		"applications": apps,
		"count":        len(apps),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"version":      h.version,
		"model_loaded": h.service.ModelLoaded(),
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
