package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// --- モック定義 ---

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func stasisRequest(t *testing.T, actor *model.Actor) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	return req.WithContext(ContextWithActor(req.Context(), actor))
}

// --- テスト ---

func TestStasisGateMiddleware_ActiveUser_Passes(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:          id,
				IsPaused:    false,
				AccessUntil: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}

	mw := NewStasisGateMiddleware(finder)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, stasisRequest(t, &model.Actor{ID: "user-1", Role: model.RoleFreelancer}))

	if w.Code != http.StatusOK || !called {
		t.Errorf("status = %d, called = %v, want 200 and handler invoked", w.Code, called)
	}
}

func TestStasisGateMiddleware_PausedUser_Returns403(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:          id,
				IsPaused:    true,
				AccessUntil: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}

	mw := NewStasisGateMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, stasisRequest(t, &model.Actor{ID: "user-1", Role: model.RoleFreelancer}))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeAccountInStasis {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAccountInStasis)
	}
}

// トークン発行後に期限が切れたユーザーが現在値で判定されることを検証する。
func TestStasisGateMiddleware_ExpiredUser_Returns403(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:          id,
				IsPaused:    false,
				AccessUntil: time.Now().Add(-time.Hour),
			}, nil
		},
	}

	mw := NewStasisGateMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, stasisRequest(t, &model.Actor{ID: "user-1", Role: model.RoleBrand}))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// Adminはサブスクリプションの対象外のため、期限切れでも通過する。
func TestStasisGateMiddleware_Admin_BypassesCheck(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			t.Fatal("user lookup should not happen for admins")
			return nil, nil
		},
	}

	mw := NewStasisGateMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, stasisRequest(t, &model.Actor{ID: "admin-1", Role: model.RoleAdmin}))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStasisGateMiddleware_NoActor_Returns401(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	mw := NewStasisGateMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
