package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/yard/internal/delivery/http/middleware"
	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/usecase/visit"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// VisitService - операции жизненного цикла визита, нужные handler'у
type VisitService interface {
	Confirm(ctx context.Context, req *visit.ConfirmRequest) (*domain.Visit, error)
	Reject(ctx context.Context, visitID uuid.UUID, reason string, operatorID uuid.UUID) (*domain.Visit, error)
	RecordDeparture(ctx context.Context, vehicleID, yardID uuid.UUID) (*domain.Visit, error)
	Get(ctx context.Context, visitID uuid.UUID) (*visit.Detail, error)
	ListByYard(ctx context.Context, yardID uuid.UUID, limit, offset int) ([]*domain.Visit, error)
}

// VisitHandler обрабатывает запросы жизненного цикла визитов
type VisitHandler struct {
	visitService VisitService
	logger       logger.Logger
}

// NewVisitHandler создает новый handler
func NewVisitHandler(visitService VisitService, logger logger.Logger) *VisitHandler {
	return &VisitHandler{
		visitService: visitService,
		logger:       logger,
	}
}

// confirmRequest - тело запроса подтверждения визита
type confirmRequest struct {
	VehicleID      uuid.UUID  `json:"vehicle_id"`
	TaskID         *uuid.UUID `json:"task_id,omitempty"`
	PermitID       *uuid.UUID `json:"permit_id,omitempty"`
	CorrectedPlate string     `json:"corrected_plate,omitempty"`
}

// Confirm подтверждает ожидающий визит
// POST /api/v1/visits/{id}/confirm
func (h *VisitHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	visitID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}

	claims, ok := middleware.GetOperatorClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	confirmed, err := h.visitService.Confirm(r.Context(), &visit.ConfirmRequest{
		VisitID:        visitID,
		VehicleID:      body.VehicleID,
		TaskID:         body.TaskID,
		PermitID:       body.PermitID,
		CorrectedPlate: body.CorrectedPlate,
		OperatorID:     claims.OperatorID,
	})
	if err != nil {
		h.logger.Error("Failed to confirm visit", map[string]interface{}{
			"visit_id": visitID,
			"error":    err.Error(),
		})
		respondDomainError(w, err, "Failed to confirm visit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    confirmed,
	})
}

// rejectRequest - тело запроса отклонения визита
type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Reject отклоняет ожидающий визит
// POST /api/v1/visits/{id}/reject
func (h *VisitHandler) Reject(w http.ResponseWriter, r *http.Request) {
	visitID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}

	claims, ok := middleware.GetOperatorClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body rejectRequest
	if r.Body != nil {
		// Тело опционально - отклонение без причины допустимо
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	rejected, err := h.visitService.Reject(r.Context(), visitID, body.Reason, claims.OperatorID)
	if err != nil {
		h.logger.Error("Failed to reject visit", map[string]interface{}{
			"visit_id": visitID,
			"error":    err.Error(),
		})
		respondDomainError(w, err, "Failed to reject visit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rejected,
	})
}

// departureRequest - тело запроса фиксации выезда
type departureRequest struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	YardID    uuid.UUID `json:"yard_id"`
}

// RecordDeparture фиксирует выезд ТС с площадки
// POST /api/v1/visits/departure
func (h *VisitHandler) RecordDeparture(w http.ResponseWriter, r *http.Request) {
	var body departureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.VehicleID == uuid.Nil || body.YardID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "vehicle_id and yard_id are required")
		return
	}

	departed, err := h.visitService.RecordDeparture(r.Context(), body.VehicleID, body.YardID)
	if err != nil {
		h.logger.Error("Failed to record departure", map[string]interface{}{
			"vehicle_id": body.VehicleID,
			"yard_id":    body.YardID,
			"error":      err.Error(),
		})
		respondDomainError(w, err, "Failed to record departure")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    departed,
	})
}

// GetVisit возвращает визит с требованием взвешивания и измерениями
// GET /api/v1/visits/{id}
func (h *VisitHandler) GetVisit(w http.ResponseWriter, r *http.Request) {
	visitID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}

	detail, err := h.visitService.Get(r.Context(), visitID)
	if err != nil {
		h.logger.Error("Failed to get visit", map[string]interface{}{
			"visit_id": visitID,
			"error":    err.Error(),
		})
		respondDomainError(w, err, "Failed to get visit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    detail,
	})
}

// ListVisits возвращает визиты площадки
// GET /api/v1/visits?yard_id=...
func (h *VisitHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	yardID, err := uuid.Parse(r.URL.Query().Get("yard_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid yard_id")
		return
	}

	limit, offset := getPaginationParams(r)

	visits, err := h.visitService.ListByYard(r.Context(), yardID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list visits", map[string]interface{}{
			"yard_id": yardID,
			"error":   err.Error(),
		})
		respondDomainError(w, err, "Failed to list visits")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    visits,
		"pagination": map[string]int{
			"limit":  limit,
			"offset": offset,
		},
	})
}
