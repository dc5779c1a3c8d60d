package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/usecase/admission"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdmissionService - операции резолвера допуска, нужные handler'у
type AdmissionService interface {
	SubmitRecognition(ctx context.Context, event *admission.RecognitionEvent) (*admission.Result, error)
	Candidates(ctx context.Context, visitID uuid.UUID) ([]*admission.Candidate, error)
}

// AdmissionHandler обрабатывает события идентификации ТС
type AdmissionHandler struct {
	admissionService AdmissionService
	logger           logger.Logger
}

// NewAdmissionHandler создает новый handler
func NewAdmissionHandler(admissionService AdmissionService, logger logger.Logger) *AdmissionHandler {
	return &AdmissionHandler{
		admissionService: admissionService,
		logger:           logger,
	}
}

// SubmitRecognition обрабатывает событие распознавания номера
// POST /api/v1/admission/events
func (h *AdmissionHandler) SubmitRecognition(w http.ResponseWriter, r *http.Request) {
	var event admission.RecognitionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Error("Failed to decode request", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.admissionService.SubmitRecognition(r.Context(), &event)
	if err != nil {
		h.logger.Error("Failed to process recognition event", map[string]interface{}{
			"plate": event.Plate,
			"error": err.Error(),
		})
		respondDomainError(w, err, "Failed to process recognition event")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetCandidates возвращает кандидатов для ожидающего визита
// GET /api/v1/visits/{id}/candidates
func (h *AdmissionHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	visitID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}

	candidates, err := h.admissionService.Candidates(r.Context(), visitID)
	if err != nil {
		h.logger.Error("Failed to get candidates", map[string]interface{}{
			"visit_id": visitID,
			"error":    err.Error(),
		})
		respondDomainError(w, err, "Failed to get candidates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    candidates,
	})
}
