package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/collective"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/middleware"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// --- モック定義 ---

type mockCollectiveService struct {
	initiateFn         func(ctx context.Context, actor *model.Actor, input collective.InitiateInput) (*model.Collective, error)
	acceptInvitationFn func(ctx context.Context, actor *model.Actor, collectiveID string, accept bool) (*model.Collective, error)
	getFn              func(ctx context.Context, collectiveID string) (*model.Collective, error)
	listByStatusFn     func(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error)
}

func (m *mockCollectiveService) Initiate(ctx context.Context, actor *model.Actor, input collective.InitiateInput) (*model.Collective, error) {
	return m.initiateFn(ctx, actor, input)
}
func (m *mockCollectiveService) AcceptInvitation(ctx context.Context, actor *model.Actor, collectiveID string, accept bool) (*model.Collective, error) {
	return m.acceptInvitationFn(ctx, actor, collectiveID, accept)
}
func (m *mockCollectiveService) Get(ctx context.Context, collectiveID string) (*model.Collective, error) {
	return m.getFn(ctx, collectiveID)
}
func (m *mockCollectiveService) ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error) {
	return m.listByStatusFn(ctx, status)
}

func authedRequest(t *testing.T, method, target, body string, actor *model.Actor) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if actor != nil {
		req = req.WithContext(middleware.ContextWithActor(req.Context(), actor))
	}
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleCollective() *model.Collective {
	return &model.Collective{
		ID:      "col-1",
		Name:    "Pixel Forge",
		OwnerID: "f-1",
		Members: []model.CollectiveMember{
			{UserID: "f-1", Status: model.MemberAccepted, JoinedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
		Status:    model.CollectiveAssembling,
		CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- テスト ---

func TestCollectiveHandler_Initiate_Returns201(t *testing.T) {
	svc := &mockCollectiveService{
		initiateFn: func(ctx context.Context, actor *model.Actor, input collective.InitiateInput) (*model.Collective, error) {
			if input.Name != "Pixel Forge" {
				t.Errorf("input.Name = %q, want Pixel Forge", input.Name)
			}
			return sampleCollective(), nil
		},
	}
	h := NewCollectiveHandler(svc)

	body := `{"name":"Pixel Forge","logo":"https://cdn.example.com/logo.png","slogan":"we build","member_ids":["f-2"]}`
	req := authedRequest(t, http.MethodPost, "/api/collectives", body, &model.Actor{ID: "f-1", Role: model.RoleFreelancer})
	w := httptest.NewRecorder()

	h.Initiate(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp collectiveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.ID != "col-1" || resp.Status != string(model.CollectiveAssembling) {
		t.Errorf("response = %+v, want col-1 in Assembling", resp)
	}
}

func TestCollectiveHandler_Initiate_InvalidJSON_Returns400(t *testing.T) {
	h := NewCollectiveHandler(&mockCollectiveService{})

	req := authedRequest(t, http.MethodPost, "/api/collectives", "{not json", &model.Actor{ID: "f-1", Role: model.RoleFreelancer})
	w := httptest.NewRecorder()

	h.Initiate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCollectiveHandler_Initiate_NoActor_Returns401(t *testing.T) {
	h := NewCollectiveHandler(&mockCollectiveService{})

	req := authedRequest(t, http.MethodPost, "/api/collectives", `{"name":"x"}`, nil)
	w := httptest.NewRecorder()

	h.Initiate(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCollectiveHandler_RespondInvitation_PassesURLParam(t *testing.T) {
	svc := &mockCollectiveService{
		acceptInvitationFn: func(ctx context.Context, actor *model.Actor, collectiveID string, accept bool) (*model.Collective, error) {
			if collectiveID != "col-1" {
				t.Errorf("collectiveID = %q, want col-1", collectiveID)
			}
			if !accept {
				t.Error("accept = false, want true")
			}
			return sampleCollective(), nil
		},
	}
	h := NewCollectiveHandler(svc)

	req := authedRequest(t, http.MethodPost, "/api/collectives/col-1/respond", `{"accept":true}`, &model.Actor{ID: "f-2", Role: model.RoleFreelancer})
	req = withURLParam(req, "collectiveID", "col-1")
	w := httptest.NewRecorder()

	h.RespondInvitation(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCollectiveHandler_Get_NotFound_Returns404(t *testing.T) {
	svc := &mockCollectiveService{
		getFn: func(ctx context.Context, collectiveID string) (*model.Collective, error) {
			return nil, model.NewCollectiveNotFoundError(collectiveID)
		},
	}
	h := NewCollectiveHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/collectives/missing", nil)
	req = withURLParam(req, "collectiveID", "missing")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCollectiveHandler_ListActive(t *testing.T) {
	svc := &mockCollectiveService{
		listByStatusFn: func(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error) {
			if status != model.CollectiveActive {
				t.Errorf("status = %q, want Active", status)
			}
			return []*model.Collective{sampleCollective()}, nil
		},
	}
	h := NewCollectiveHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/collectives", nil)
	w := httptest.NewRecorder()

	h.ListActive(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []collectiveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp) != 1 {
		t.Errorf("results = %d, want 1", len(resp))
	}
}
