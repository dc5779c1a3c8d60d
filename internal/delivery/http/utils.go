package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/frontandrew/yard/internal/domain"
)

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondDomainError переводит доменную ошибку в HTTP статус:
// нарушения политики и конфликты состояний - 409, ошибки валидации - 400,
// отсутствие сущности - 404, остальное - 500 с нейтральным сообщением
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrPermitRequired),
		errors.Is(err, domain.ErrVehicleAlreadyOnSite),
		errors.Is(err, domain.ErrRequirementConflict),
		errors.Is(err, domain.ErrVisitNotOnSite),
		errors.Is(err, domain.ErrPermitConsumed),
		errors.Is(err, domain.ErrPermitNotCovering),
		errors.Is(err, domain.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrInvalidLicensePlate),
		errors.Is(err, domain.ErrInvalidWeight),
		errors.Is(err, domain.ErrInvalidWeighingKind),
		errors.Is(err, domain.ErrSkipReasonRequired),
		errors.Is(err, domain.ErrInvalidVisitData),
		errors.Is(err, domain.ErrInvalidPermitData),
		errors.Is(err, domain.ErrInvalidVehicleData),
		errors.Is(err, domain.ErrInvalidReportWindow),
		errors.Is(err, domain.ErrBadRequest):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrVisitNotFound),
		errors.Is(err, domain.ErrVisitNotPending),
		errors.Is(err, domain.ErrNoActiveVisit),
		errors.Is(err, domain.ErrVehicleNotFound),
		errors.Is(err, domain.ErrPermitNotFound),
		errors.Is(err, domain.ErrYardNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrRequirementNotFound),
		errors.Is(err, domain.ErrWeighingNotFound),
		errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// getPaginationParams извлекает параметры пагинации из query string
func getPaginationParams(r *http.Request) (limit, offset int) {
	limit = 50 // по умолчанию
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
			if limit > 100 {
				limit = 100 // максимум 100
			}
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	return limit, offset
}
