package post

import (
	"context"
	"errors"
	"testing"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// --- モック ---

type mockPostRepo struct {
	createFn         func(ctx context.Context, p *model.Post) error
	findByIDFn       func(ctx context.Context, id string) (*model.Post, error)
	listByVerifiedFn func(ctx context.Context, verified bool) ([]*model.Post, error)
	setVerifiedFn    func(ctx context.Context, id string) (bool, error)
	deleteFn         func(ctx context.Context, id string) (bool, error)
}

func (m *mockPostRepo) Create(ctx context.Context, p *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPostRepo) ListByVerified(ctx context.Context, verified bool) ([]*model.Post, error) {
	if m.listByVerifiedFn != nil {
		return m.listByVerifiedFn(ctx, verified)
	}
	return nil, nil
}
func (m *mockPostRepo) SetVerified(ctx context.Context, id string) (bool, error) {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, id)
	}
	return false, nil
}
func (m *mockPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

// markingSanitizer はサニタイズ通過を検知できるテスト用サニタイザー。
type markingSanitizer struct{}

func (markingSanitizer) Sanitize(content string) string { return "clean:" + content }

// --- テスト ---

func brandActor() *model.Actor {
	return &model.Actor{ID: "brand-1", Email: "brand@example.com", Role: model.RoleBrand}
}

// TestService_Create は投稿作成で本文がサニタイズされ、未検証状態で
// 保存されることを検証する。
func TestService_Create(t *testing.T) {
	var saved *model.Post
	repo := &mockPostRepo{
		createFn: func(ctx context.Context, p *model.Post) error {
			saved = p
			return nil
		},
	}

	svc := NewService(repo, markingSanitizer{})

	p, err := svc.Create(context.Background(), brandActor(), CreateInput{
		Domain:       "web",
		GlobalVision: "B2Bマーケットを広げる",
		Description:  "詳細",
		Goal:         "月間1万PV",
		PostImage:    "https://cdn.example.com/post.png",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if p.GlobalVision != "clean:B2Bマーケットを広げる" {
		t.Errorf("GlobalVision = %q, want sanitized content", p.GlobalVision)
	}
	if saved == nil || saved.IsVerified {
		t.Errorf("saved = %+v, want unverified post", saved)
	}
}

func TestService_Create_NonBrand_ReturnsError(t *testing.T) {
	svc := NewService(&mockPostRepo{}, markingSanitizer{})

	_, err := svc.Create(context.Background(), &model.Actor{ID: "f-1", Role: model.RoleFreelancer}, CreateInput{
		Domain:       "web",
		GlobalVision: "vision",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRoleForbidden {
		t.Fatalf("expected ROLE_FORBIDDEN, got %v", err)
	}
}

func TestService_Create_MissingFields_ReturnsError(t *testing.T) {
	svc := NewService(&mockPostRepo{}, markingSanitizer{})

	_, err := svc.Create(context.Background(), brandActor(), CreateInput{Domain: "  "})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestService_Feed は公開フィードが検証済み投稿のみを対象とすることを検証する。
func TestService_Feed(t *testing.T) {
	repo := &mockPostRepo{
		listByVerifiedFn: func(ctx context.Context, verified bool) ([]*model.Post, error) {
			if !verified {
				t.Error("Feed should request verified posts only")
			}
			return []*model.Post{{ID: "post-1"}}, nil
		},
	}

	svc := NewService(repo, markingSanitizer{})

	posts, err := svc.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("results = %d, want 1", len(posts))
	}
}

func TestService_PendingQueue(t *testing.T) {
	repo := &mockPostRepo{
		listByVerifiedFn: func(ctx context.Context, verified bool) ([]*model.Post, error) {
			if verified {
				t.Error("PendingQueue should request unverified posts only")
			}
			return []*model.Post{{ID: "post-1"}, {ID: "post-2"}}, nil
		},
	}

	svc := NewService(repo, markingSanitizer{})

	posts, err := svc.PendingQueue(context.Background())
	if err != nil {
		t.Fatalf("PendingQueue returned error: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("results = %d, want 2", len(posts))
	}
}

func TestService_Verify_NotFound_ReturnsError(t *testing.T) {
	repo := &mockPostRepo{
		setVerifiedFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(repo, markingSanitizer{})

	err := svc.Verify(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	repo := &mockPostRepo{
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return true, nil
		},
	}

	svc := NewService(repo, markingSanitizer{})

	if err := svc.Delete(context.Background(), "post-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}
