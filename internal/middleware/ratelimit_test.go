package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

func limitedRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	return req.WithContext(ContextWithActor(req.Context(), &model.Actor{ID: userID, Role: model.RoleSimple}))
}

func TestRateLimiter_GeneralMiddleware_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(10),
		GeneralBurst:    5,
		CreationRate:    rate.Limit(1),
		CreationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest(t, "user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_GeneralMiddleware_BurstExceeded_Returns429(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    2,
		CreationRate:    rate.Limit(1),
		CreationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest(t, "user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be set")
	}
}

// ユーザーごとに独立したリミッターが使われることを検証する。
func TestRateLimiter_GeneralMiddleware_PerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    1,
		CreationRate:    rate.Limit(1),
		CreationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("user-1 second request: status = %d, want 429", w.Code)
	}

	// 別ユーザーは制限の影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest(t, "user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 request: status = %d, want 200", w.Code)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("limiter count = %d, want 2", got)
	}
}

func TestRateLimiter_CreationMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(10),
		GeneralBurst:    10,
		CreationRate:    rate.Limit(0.001),
		CreationBurst:   1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	creation := rl.CreationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	creation.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("first creation: status = %d, want 201", w.Code)
	}

	w = httptest.NewRecorder()
	creation.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second creation: status = %d, want 429", w.Code)
	}

	// 作成系が枯渇してもAPI全般は通る
	w = httptest.NewRecorder()
	general.ServeHTTP(w, limitedRequest(t, "user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_NoActor_Returns401(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
