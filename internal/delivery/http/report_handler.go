package http

import (
	"context"
	"net/http"
	"time"

	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/usecase/report"
	"github.com/google/uuid"
)

// ReportService - операции отчетов, нужные handler'у
type ReportService interface {
	Shift(ctx context.Context, yardID uuid.UUID, start, end time.Time) (*report.ShiftReport, error)
}

// ReportHandler обрабатывает запросы отчетов
type ReportHandler struct {
	reportService ReportService
	logger        logger.Logger
}

// NewReportHandler создает новый handler
func NewReportHandler(reportService ReportService, logger logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetShiftReport возвращает сводку по смене
// GET /api/v1/reports/shift?yard_id=...&start=...&end=...
func (h *ReportHandler) GetShiftReport(w http.ResponseWriter, r *http.Request) {
	yardID, err := uuid.Parse(r.URL.Query().Get("yard_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid yard_id")
		return
	}

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start, expected RFC3339")
		return
	}

	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end, expected RFC3339")
		return
	}

	rep, err := h.reportService.Shift(r.Context(), yardID, start, end)
	if err != nil {
		h.logger.Error("Failed to build shift report", map[string]interface{}{
			"yard_id": yardID,
			"error":   err.Error(),
		})
		respondDomainError(w, err, "Failed to build shift report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rep,
	})
}
