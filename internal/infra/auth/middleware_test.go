package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/polis-console/internal/domain"
	"go.uber.org/zap"
)

func TestMiddleware(t *testing.T) {
	key := testKey(t)
	mw := NewMiddleware(NewBaseValidator(&key.PublicKey), zap.NewNop())

	var gotUserID string
	var gotRole domain.Role
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
		gotRole = UserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/policies", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/policies", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, key, &domain.CustomClaims{
			UserID: "user-7",
			Role:   domain.RoleUnderwriter,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/v1/policies", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUserID != "user-7" || gotRole != domain.RoleUnderwriter {
			t.Fatalf("context not populated: %q / %q", gotUserID, gotRole)
		}
	})
}

func TestContextAccessorsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := UserID(req.Context()); id != "" {
		t.Fatalf("expected empty user id, got %q", id)
	}
	if role := UserRole(req.Context()); role != "" {
		t.Fatalf("expected empty role, got %q", role)
	}
}
