package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// --- モック定義 ---

type mockWhitelistChecker struct {
	isWhitelistedFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockWhitelistChecker) IsWhitelisted(ctx context.Context, email string) (bool, error) {
	return m.isWhitelistedFn(ctx, email)
}

func requestWithActor(t *testing.T, actor *model.Actor) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/test", nil)
	return req.WithContext(ContextWithActor(req.Context(), actor))
}

// --- テスト ---

func TestAdminMiddleware_WhitelistedAdmin_Passes(t *testing.T) {
	checker := &mockWhitelistChecker{
		isWhitelistedFn: func(ctx context.Context, email string) (bool, error) {
			return email == "admin@example.com", nil
		},
	}

	mw := NewAdminMiddleware(checker)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithActor(t, &model.Actor{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

// Admin役割だけが書き換えられたアカウントがホワイトリスト照合で
// 遮断されることを検証する。
func TestAdminMiddleware_AdminNotWhitelisted_Returns403(t *testing.T) {
	checker := &mockWhitelistChecker{
		isWhitelistedFn: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}

	mw := NewAdminMiddleware(checker)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithActor(t, &model.Actor{ID: "rogue-1", Email: "rogue@example.com", Role: model.RoleAdmin}))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeNotWhitelisted {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeNotWhitelisted)
	}
}

func TestAdminMiddleware_NonAdminRole_Returns403(t *testing.T) {
	checker := &mockWhitelistChecker{
		isWhitelistedFn: func(ctx context.Context, email string) (bool, error) {
			t.Fatal("whitelist should not be checked for non-admin roles")
			return false, nil
		},
	}

	mw := NewAdminMiddleware(checker)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithActor(t, &model.Actor{ID: "user-1", Email: "u@example.com", Role: model.RoleFreelancer}))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAdminMiddleware_NoActor_Returns401(t *testing.T) {
	checker := &mockWhitelistChecker{
		isWhitelistedFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	mw := NewAdminMiddleware(checker)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
