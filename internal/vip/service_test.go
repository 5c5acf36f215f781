package vip

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// --- モック ---

type mockVipPostRepo struct {
	createFn         func(ctx context.Context, p *model.VipPost) error
	listByVerifiedFn func(ctx context.Context, verified bool) ([]*model.VipPost, error)
	setVerifiedFn    func(ctx context.Context, id string) (bool, error)
	deleteFn         func(ctx context.Context, id string) (bool, error)
}

func (m *mockVipPostRepo) Create(ctx context.Context, p *model.VipPost) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockVipPostRepo) ListByVerified(ctx context.Context, verified bool) ([]*model.VipPost, error) {
	if m.listByVerifiedFn != nil {
		return m.listByVerifiedFn(ctx, verified)
	}
	return nil, nil
}
func (m *mockVipPostRepo) SetVerified(ctx context.Context, id string) (bool, error) {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, id)
	}
	return false, nil
}
func (m *mockVipPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}
func (m *mockVipPostRepo) CountByVerified(ctx context.Context) (map[bool]int, error) {
	return nil, nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ListByStatus(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	return nil
}
func (m *mockUserRepo) UpdateRoleByID(ctx context.Context, id string, role model.Role) error {
	return nil
}
func (m *mockUserRepo) UpdateRoleByEmail(ctx context.Context, email string, role model.Role) error {
	return nil
}
func (m *mockUserRepo) ExtendAccess(ctx context.Context, id string, until time.Time) error {
	return nil
}
func (m *mockUserRepo) PauseExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (m *mockUserRepo) SearchOperatives(ctx context.Context, query string, now time.Time, limit int) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Stats(ctx context.Context, growthSince time.Time) (*repository.UserStats, error) {
	return nil, nil
}

type mockSSRFGuard struct {
	validateURLFn func(rawURL string) error
}

func (m *mockSSRFGuard) ValidateURL(rawURL string) error {
	if m.validateURLFn != nil {
		return m.validateURLFn(rawURL)
	}
	return nil
}
func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return http.DefaultClient
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(content string) string { return content }

// --- テスト ---

func premiumFreelancer() *model.User {
	return &model.User{
		ID:            "f-1",
		Role:          model.RoleFreelancer,
		IsPremium:     true,
		AverageRating: 4.5,
	}
}

func freelancerActor() *model.Actor {
	return &model.Actor{ID: "f-1", Email: "f@example.com", Role: model.RoleFreelancer}
}

func newTestService(vipRepo *mockVipPostRepo, userRepo *mockUserRepo) *Service {
	return NewService(vipRepo, userRepo, &mockSSRFGuard{}, passthroughSanitizer{})
}

// TestService_Create_Freelancer は掲載作成で評価が作成時点の値で
// 固定されることを検証する。
func TestService_Create_Freelancer(t *testing.T) {
	var saved *model.VipPost
	vipRepo := &mockVipPostRepo{
		createFn: func(ctx context.Context, p *model.VipPost) error {
			saved = p
			return nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return premiumFreelancer(), nil
		},
	}

	svc := newTestService(vipRepo, userRepo)

	p, err := svc.Create(context.Background(), freelancerActor(), CreateInput{
		GlobalService:      "ロゴデザイン",
		ServiceDescription: "ブランドロゴの制作",
		PortfolioLinks:     []string{"https://portfolio.example.com/f-1"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if p.RatingSnapshot != 4.5 {
		t.Errorf("RatingSnapshot = %v, want 4.5", p.RatingSnapshot)
	}
	if p.IntelType != model.IntelFreelancer {
		t.Errorf("IntelType = %q, want Freelancer", p.IntelType)
	}
	if p.MediaType != model.MediaImage {
		t.Errorf("MediaType = %q, want default image", p.MediaType)
	}
	if saved == nil || saved.Verified {
		t.Errorf("saved = %+v, want unverified post", saved)
	}
}

func TestService_Create_NonPremium_ReturnsError(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			u := premiumFreelancer()
			u.IsPremium = false
			return u, nil
		},
	}

	svc := newTestService(&mockVipPostRepo{}, userRepo)

	_, err := svc.Create(context.Background(), freelancerActor(), CreateInput{GlobalService: "x"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestService_Create_BrandMissingFields_ReturnsError はブランド掲載の
// 必須フィールド検証を確認する。
func TestService_Create_BrandMissingFields_ReturnsError(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: "b-1", Role: model.RoleBrand, IsPremium: true}, nil
		},
	}

	svc := newTestService(&mockVipPostRepo{}, userRepo)

	_, err := svc.Create(context.Background(), &model.Actor{ID: "b-1", Role: model.RoleBrand}, CreateInput{
		BrandName: "Acme",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestService_Create_UnsafePortfolioLink_ReturnsError(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return premiumFreelancer(), nil
		},
	}
	guard := &mockSSRFGuard{
		validateURLFn: func(rawURL string) error {
			return errors.New("private address")
		},
	}

	svc := NewService(&mockVipPostRepo{}, userRepo, guard, passthroughSanitizer{})

	_, err := svc.Create(context.Background(), freelancerActor(), CreateInput{
		GlobalService:  "design",
		PortfolioLinks: []string{"http://192.168.1.1/"},
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnsafeURL {
		t.Fatalf("expected UNSAFE_URL, got %v", err)
	}
}

func TestService_Feed(t *testing.T) {
	vipRepo := &mockVipPostRepo{
		listByVerifiedFn: func(ctx context.Context, verified bool) ([]*model.VipPost, error) {
			if !verified {
				t.Error("Feed should request verified posts only")
			}
			return []*model.VipPost{{ID: "vip-1"}}, nil
		},
	}

	svc := newTestService(vipRepo, &mockUserRepo{})

	posts, err := svc.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("results = %d, want 1", len(posts))
	}
}

func TestService_Verify_NotFound_ReturnsError(t *testing.T) {
	vipRepo := &mockVipPostRepo{
		setVerifiedFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}

	svc := newTestService(vipRepo, &mockUserRepo{})

	err := svc.Verify(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
}
