package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontandrew/yard/internal/delivery/http/middleware"
	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// newTestRequest создает запрос с chi route context для параметров пути
func newTestRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, body)

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withOperator добавляет в контекст запроса claims оператора
func withOperator(r *http.Request, operatorID uuid.UUID, role domain.OperatorRole) *http.Request {
	claims := &jwt.Claims{
		OperatorID: operatorID,
		Role:       role,
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.OperatorClaimsKey, claims))
}

// decodeResponse разбирает JSON тело ответа
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}
