package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	tokenService := jwt.NewTokenService("test-secret")
	operatorID := uuid.New()

	t.Run("valid token passes claims to handler", func(t *testing.T) {
		token, err := tokenService.GenerateToken(operatorID, domain.RoleGuard, time.Hour)
		require.NoError(t, err)

		var gotClaims *jwt.Claims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetOperatorClaims(r.Context())
			require.True(t, ok)
			gotClaims = claims
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		AuthMiddleware(tokenService)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, operatorID, gotClaims.OperatorID)
		assert.Equal(t, domain.RoleGuard, gotClaims.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		AuthMiddleware(tokenService)(forbiddenNext(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		AuthMiddleware(tokenService)(forbiddenNext(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with wrong secret", func(t *testing.T) {
		foreign := jwt.NewTokenService("other-secret")
		token, err := foreign.GenerateToken(operatorID, domain.RoleGuard, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		AuthMiddleware(tokenService)(forbiddenNext(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := tokenService.GenerateToken(operatorID, domain.RoleGuard, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		AuthMiddleware(tokenService)(forbiddenNext(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tokenService := jwt.NewTokenService("test-secret")

	// Прогоняет запрос через цепочку auth -> role gate с реальным токеном
	serve := func(t *testing.T, tokenRole domain.OperatorRole, allowed ...domain.OperatorRole) *httptest.ResponseRecorder {
		t.Helper()
		token, err := tokenService.GenerateToken(uuid.New(), tokenRole, time.Hour)
		require.NoError(t, err)

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		handler := AuthMiddleware(tokenService)(RequireRole(allowed...)(next))

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed role", func(t *testing.T) {
		rec := serve(t, domain.RoleGuard, domain.RoleGuard, domain.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden role", func(t *testing.T) {
		rec := serve(t, domain.RoleGuard, domain.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		RequireRole(domain.RoleAdmin)(forbiddenNext(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// forbiddenNext - обработчик, до которого запрос доходить не должен
func forbiddenNext(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
}
