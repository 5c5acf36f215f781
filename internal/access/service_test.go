package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// --- モック ---

type mockAccessRepo struct {
	findFn   func(ctx context.Context, email string) (*model.Access, error)
	createFn func(ctx context.Context, a *model.Access) error
	listFn   func(ctx context.Context) ([]*model.Access, error)
	deleteFn func(ctx context.Context, email string) error
}

func (m *mockAccessRepo) Find(ctx context.Context, email string) (*model.Access, error) {
	if m.findFn != nil {
		return m.findFn(ctx, email)
	}
	return nil, nil
}
func (m *mockAccessRepo) Create(ctx context.Context, a *model.Access) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAccessRepo) List(ctx context.Context) ([]*model.Access, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockAccessRepo) Delete(ctx context.Context, email string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, email)
	}
	return nil
}

type mockUserRepo struct {
	updateRoleByEmailFn func(ctx context.Context, email string, role model.Role) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
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
	if m.updateRoleByEmailFn != nil {
		return m.updateRoleByEmailFn(ctx, email, role)
	}
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

// --- テスト ---

const masterEmail = "master@chrikitn.tn"

func adminActor() *model.Actor {
	return &model.Actor{ID: "admin-1", Email: "admin@chrikitn.tn", Role: model.RoleAdmin}
}

// TestService_Grant はホワイトリスト追加と既存ユーザーのAdmin昇格を検証する。
func TestService_Grant(t *testing.T) {
	var created *model.Access
	accessRepo := &mockAccessRepo{
		createFn: func(ctx context.Context, a *model.Access) error {
			created = a
			return nil
		},
	}
	var promotedEmail string
	var promotedRole model.Role
	userRepo := &mockUserRepo{
		updateRoleByEmailFn: func(ctx context.Context, email string, role model.Role) error {
			promotedEmail = email
			promotedRole = role
			return nil
		},
	}

	svc := NewService(accessRepo, userRepo, masterEmail)

	a, err := svc.Grant(context.Background(), adminActor(), "  New.Admin@Example.com ")
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if a.Email != "new.admin@example.com" {
		t.Errorf("Email = %q, want lowercased trimmed address", a.Email)
	}
	if created == nil || created.GrantedBy != "admin@chrikitn.tn" {
		t.Errorf("created = %+v, want GrantedBy admin@chrikitn.tn", created)
	}
	if promotedEmail != "new.admin@example.com" || promotedRole != model.RoleAdmin {
		t.Errorf("promotion = (%q, %q), want (new.admin@example.com, Admin)", promotedEmail, promotedRole)
	}
}

// TestService_Grant_AlreadyWhitelisted_ReturnsError は重複追加が拒否されることを検証する。
func TestService_Grant_AlreadyWhitelisted_ReturnsError(t *testing.T) {
	accessRepo := &mockAccessRepo{
		findFn: func(ctx context.Context, email string) (*model.Access, error) {
			return &model.Access{Email: email}, nil
		},
	}

	svc := NewService(accessRepo, &mockUserRepo{}, masterEmail)

	_, err := svc.Grant(context.Background(), adminActor(), "dup@example.com")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAlreadyWhitelisted {
		t.Fatalf("expected ALREADY_WHITELISTED, got %v", err)
	}
}

// TestService_Grant_InvalidEmail_ReturnsError は不正なメールアドレスが拒否されることを検証する。
func TestService_Grant_InvalidEmail_ReturnsError(t *testing.T) {
	svc := NewService(&mockAccessRepo{}, &mockUserRepo{}, masterEmail)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Grant(context.Background(), adminActor(), email)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
			t.Fatalf("Grant(%q): expected INVALID_REQUEST, got %v", email, err)
		}
	}
}

// TestService_Revoke はホワイトリスト削除とSimple役割への降格を検証する。
func TestService_Revoke(t *testing.T) {
	deleted := false
	accessRepo := &mockAccessRepo{
		findFn: func(ctx context.Context, email string) (*model.Access, error) {
			return &model.Access{Email: email}, nil
		},
		deleteFn: func(ctx context.Context, email string) error {
			deleted = true
			return nil
		},
	}
	var demotedRole model.Role
	userRepo := &mockUserRepo{
		updateRoleByEmailFn: func(ctx context.Context, email string, role model.Role) error {
			demotedRole = role
			return nil
		},
	}

	svc := NewService(accessRepo, userRepo, masterEmail)

	if err := svc.Revoke(context.Background(), "former@example.com"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if !deleted {
		t.Error("expected whitelist entry to be deleted")
	}
	if demotedRole != model.RoleSimple {
		t.Errorf("demoted role = %q, want Simple", demotedRole)
	}
}

// TestService_Revoke_Master_ReturnsError はシステムマスターの削除が
// 大文字小文字を問わず拒否されることを検証する。
func TestService_Revoke_Master_ReturnsError(t *testing.T) {
	accessRepo := &mockAccessRepo{
		deleteFn: func(ctx context.Context, email string) error {
			t.Error("Delete should not be called for the system master")
			return nil
		},
	}

	svc := NewService(accessRepo, &mockUserRepo{}, masterEmail)

	err := svc.Revoke(context.Background(), "Master@Chrikitn.TN")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMasterProtected {
		t.Fatalf("expected MASTER_PROTECTED, got %v", err)
	}
}

// TestService_Revoke_NotListed_ReturnsError は未登録アドレスの削除が失敗することを検証する。
func TestService_Revoke_NotListed_ReturnsError(t *testing.T) {
	svc := NewService(&mockAccessRepo{}, &mockUserRepo{}, masterEmail)

	err := svc.Revoke(context.Background(), "ghost@example.com")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestService_IsWhitelisted は管理者ゲート用の照会を検証する。
func TestService_IsWhitelisted(t *testing.T) {
	accessRepo := &mockAccessRepo{
		findFn: func(ctx context.Context, email string) (*model.Access, error) {
			if email == "listed@example.com" {
				return &model.Access{Email: email}, nil
			}
			return nil, nil
		},
	}

	svc := NewService(accessRepo, &mockUserRepo{}, masterEmail)

	ok, err := svc.IsWhitelisted(context.Background(), "Listed@Example.com")
	if err != nil || !ok {
		t.Fatalf("IsWhitelisted(listed) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = svc.IsWhitelisted(context.Background(), "unknown@example.com")
	if err != nil || ok {
		t.Fatalf("IsWhitelisted(unknown) = (%v, %v), want (false, nil)", ok, err)
	}
}
