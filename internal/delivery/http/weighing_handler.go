package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/yard/internal/delivery/http/middleware"
	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/usecase/weighing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WeighingService - операции взвешивания, нужные handler'у
type WeighingService interface {
	RecordWeighing(ctx context.Context, req *weighing.RecordWeighingRequest) (*domain.Weighing, error)
	Skip(ctx context.Context, requirementID, operatorID uuid.UUID, reason string) (*domain.WeighingRequirement, error)
	Requirement(ctx context.Context, requirementID uuid.UUID) (*weighing.RequirementDetail, error)
}

// WeighingHandler обрабатывает запросы взвешивания
type WeighingHandler struct {
	weighingService WeighingService
	logger          logger.Logger
}

// NewWeighingHandler создает новый handler
func NewWeighingHandler(weighingService WeighingService, logger logger.Logger) *WeighingHandler {
	return &WeighingHandler{
		weighingService: weighingService,
		logger:          logger,
	}
}

// recordWeighingRequest - тело запроса фиксации измерения
type recordWeighingRequest struct {
	RequirementID *uuid.UUID          `json:"requirement_id,omitempty"`
	VisitID       *uuid.UUID          `json:"visit_id,omitempty"`
	Kind          domain.WeighingKind `json:"kind"`
	WeightKg      float64             `json:"weight_kg"`
	Note          string              `json:"note,omitempty"`
}

// RecordWeighing фиксирует измерение веса
// POST /api/v1/weighings
func (h *WeighingHandler) RecordWeighing(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetOperatorClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body recordWeighingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	recorded, err := h.weighingService.RecordWeighing(r.Context(), &weighing.RecordWeighingRequest{
		RequirementID: body.RequirementID,
		VisitID:       body.VisitID,
		Kind:          body.Kind,
		WeightKg:      body.WeightKg,
		OperatorID:    claims.OperatorID,
		Note:          body.Note,
	})
	if err != nil {
		h.logger.Error("Failed to record weighing", map[string]interface{}{
			"kind":  body.Kind,
			"error": err.Error(),
		})
		respondDomainError(w, err, "Failed to record weighing")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    recorded,
	})
}

// skipRequest - тело запроса пропуска требования
type skipRequest struct {
	Reason string `json:"reason"`
}

// SkipRequirement пропускает требование взвешивания по решению оператора
// POST /api/v1/requirements/{id}/skip
func (h *WeighingHandler) SkipRequirement(w http.ResponseWriter, r *http.Request) {
	requirementID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid requirement ID")
		return
	}

	claims, ok := middleware.GetOperatorClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body skipRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	skipped, err := h.weighingService.Skip(r.Context(), requirementID, claims.OperatorID, body.Reason)
	if err != nil {
		h.logger.Error("Failed to skip requirement", map[string]interface{}{
			"requirement_id": requirementID,
			"error":          err.Error(),
		})
		respondDomainError(w, err, "Failed to skip requirement")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    skipped,
	})
}

// GetRequirement возвращает требование с засчитанными измерениями
// GET /api/v1/requirements/{id}
func (h *WeighingHandler) GetRequirement(w http.ResponseWriter, r *http.Request) {
	requirementID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid requirement ID")
		return
	}

	detail, err := h.weighingService.Requirement(r.Context(), requirementID)
	if err != nil {
		h.logger.Error("Failed to get requirement", map[string]interface{}{
			"requirement_id": requirementID,
			"error":          err.Error(),
		})
		respondDomainError(w, err, "Failed to get requirement")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    detail,
	})
}
