package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/usecase/admission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAdmissionService - mock для AdmissionService
type MockAdmissionService struct {
	mock.Mock
}

func (m *MockAdmissionService) SubmitRecognition(ctx context.Context, event *admission.RecognitionEvent) (*admission.Result, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Result), args.Error(1)
}

func (m *MockAdmissionService) Candidates(ctx context.Context, visitID uuid.UUID) ([]*admission.Candidate, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*admission.Candidate), args.Error(1)
}

func TestAdmissionHandler_SubmitRecognition(t *testing.T) {
	t.Run("успешный допуск возвращает 201", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		vehicleID := uuid.New()
		result := &admission.Result{
			Visit: &domain.Visit{
				ID:           uuid.New(),
				LicensePlate: "A123BC77",
				VehicleID:    &vehicleID,
				Status:       domain.VisitStatusOnSite,
			},
		}
		mockService.On("SubmitRecognition", mock.Anything, mock.AnythingOfType("*admission.RecognitionEvent")).
			Return(result, nil)

		body, _ := json.Marshal(map[string]interface{}{
			"plate":      "A123 BC 77",
			"yard_id":    uuid.New(),
			"confidence": 95,
		})
		req := newTestRequest(http.MethodPost, "/api/v1/admission/events", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		handler.SubmitRecognition(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		response := decodeResponse(t, rec)
		assert.Equal(t, true, response["success"])
		mockService.AssertExpectations(t)
	})

	t.Run("некорректное тело возвращает 400", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		req := newTestRequest(http.MethodPost, "/api/v1/admission/events", bytes.NewReader([]byte("not json")), nil)
		rec := httptest.NewRecorder()

		handler.SubmitRecognition(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("повторный въезд возвращает 409", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		mockService.On("SubmitRecognition", mock.Anything, mock.Anything).
			Return(nil, domain.ErrVehicleAlreadyOnSite)

		body, _ := json.Marshal(map[string]interface{}{
			"plate":   "A123BC77",
			"yard_id": uuid.New(),
		})
		req := newTestRequest(http.MethodPost, "/api/v1/admission/events", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		handler.SubmitRecognition(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		response := decodeResponse(t, rec)
		assert.Equal(t, false, response["success"])
	})

	t.Run("некорректный номер возвращает 400", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		mockService.On("SubmitRecognition", mock.Anything, mock.Anything).
			Return(nil, domain.ErrInvalidLicensePlate)

		body, _ := json.Marshal(map[string]interface{}{
			"plate":   "A1",
			"yard_id": uuid.New(),
		})
		req := newTestRequest(http.MethodPost, "/api/v1/admission/events", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		handler.SubmitRecognition(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdmissionHandler_GetCandidates(t *testing.T) {
	t.Run("кандидаты ожидающего визита", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		visitID := uuid.New()
		candidates := []*admission.Candidate{
			{
				Vehicle:    &domain.Vehicle{ID: uuid.New(), LicensePlate: "A123BC77"},
				Similarity: 87,
				Source:     admission.CandidateSourceSimilar,
			},
		}
		mockService.On("Candidates", mock.Anything, visitID).Return(candidates, nil)

		req := newTestRequest(http.MethodGet, "/api/v1/visits/"+visitID.String()+"/candidates", nil,
			map[string]string{"id": visitID.String()})
		rec := httptest.NewRecorder()

		handler.GetCandidates(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decodeResponse(t, rec)
		assert.Equal(t, true, response["success"])
		data, ok := response["data"].([]interface{})
		require.True(t, ok)
		assert.Len(t, data, 1)
	})

	t.Run("некорректный ID визита возвращает 400", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		req := newTestRequest(http.MethodGet, "/api/v1/visits/abc/candidates", nil,
			map[string]string{"id": "abc"})
		rec := httptest.NewRecorder()

		handler.GetCandidates(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("неожидающий визит возвращает 404", func(t *testing.T) {
		mockService := new(MockAdmissionService)
		handler := NewAdmissionHandler(mockService, logger.NewNoop())

		visitID := uuid.New()
		mockService.On("Candidates", mock.Anything, visitID).Return(nil, domain.ErrVisitNotPending)

		req := newTestRequest(http.MethodGet, "/api/v1/visits/"+visitID.String()+"/candidates", nil,
			map[string]string{"id": visitID.String()})
		rec := httptest.NewRecorder()

		handler.GetCandidates(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
