// Package access は管理者ホワイトリストのドメインロジックを提供する。
package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// Service は管理者ホワイトリストのサービス層。
// システムマスターのエントリは削除から保護される。
type Service struct {
	accessRepo        repository.AccessRepository
	userRepo          repository.UserRepository
	systemMasterEmail string
	now               func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accessRepo repository.AccessRepository, userRepo repository.UserRepository, systemMasterEmail string) *Service {
	return &Service{
		accessRepo:        accessRepo,
		userRepo:          userRepo,
		systemMasterEmail: strings.ToLower(systemMasterEmail),
		now:               time.Now,
	}
}

// List は全ホワイトリストエントリを返す。
func (s *Service) List(ctx context.Context) ([]*model.Access, error) {
	entries, err := s.accessRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ホワイトリストの取得に失敗しました: %w", err)
	}
	return entries, nil
}

// Grant はメールアドレスをホワイトリストに追加し、該当ユーザーが
// 既に登録済みであればAdmin役割へ昇格させる。
func (s *Service) Grant(ctx context.Context, actor *model.Actor, email string) (*model.Access, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "有効なメールアドレスを指定してください。")
	}

	existing, err := s.accessRepo.Find(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ホワイトリストの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError(model.ErrCodeAlreadyWhitelisted, "このメールアドレスは既に登録済みです。")
	}

	a := &model.Access{
		Email:     email,
		GrantedBy: actor.Email,
		GrantedAt: s.now(),
	}
	if err := s.accessRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("ホワイトリストへの追加に失敗しました: %w", err)
	}

	// 先行登録を許容するため、該当ユーザーが未登録でもエラーにしない
	if err := s.userRepo.UpdateRoleByEmail(ctx, email, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("役割の昇格に失敗しました: %w", err)
	}

	return a, nil
}

// Revoke はメールアドレスをホワイトリストから削除し、該当ユーザーを
// Simple役割へ降格させる。システムマスターは削除できない。
func (s *Service) Revoke(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == s.systemMasterEmail {
		return &model.APIError{
			Code:     model.ErrCodeMasterProtected,
			Message:  "システムマスターはホワイトリストから削除できません。",
			Category: "auth",
			Action:   "他の管理者エントリのみ削除できます。",
		}
	}

	existing, err := s.accessRepo.Find(ctx, email)
	if err != nil {
		return fmt.Errorf("ホワイトリストの確認に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewValidationError(model.ErrCodeInvalidRequest, "このメールアドレスは登録されていません。")
	}

	if err := s.accessRepo.Delete(ctx, email); err != nil {
		return fmt.Errorf("ホワイトリストからの削除に失敗しました: %w", err)
	}

	if err := s.userRepo.UpdateRoleByEmail(ctx, email, model.RoleSimple); err != nil {
		return fmt.Errorf("役割の降格に失敗しました: %w", err)
	}
	return nil
}

// IsWhitelisted はメールアドレスがホワイトリストに含まれるかを返す。
// 管理者ゲートのミドルウェアが使用する。
func (s *Service) IsWhitelisted(ctx context.Context, email string) (bool, error) {
	entry, err := s.accessRepo.Find(ctx, strings.ToLower(email))
	if err != nil {
		return false, fmt.Errorf("ホワイトリストの確認に失敗しました: %w", err)
	}
	return entry != nil, nil
}
