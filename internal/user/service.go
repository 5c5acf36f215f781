// Package user はユーザープロフィールと検索のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// searchResultLimit はオペレーター検索の最大返却件数。
const searchResultLimit = 50

// Service はユーザーのサービス層。
type Service struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Profile は指定IDのユーザープロフィールを返す。
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	return user, nil
}

// SearchOperatives は稼働可能なフリーランサーを検索する。
// 一時停止中・失効済み・未承認のユーザーは結果に含まれない。
func (s *Service) SearchOperatives(ctx context.Context, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "検索キーワードは必須です。")
	}

	users, err := s.userRepo.SearchOperatives(ctx, query, s.now(), searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("オペレーター検索に失敗しました: %w", err)
	}
	return users, nil
}

// ListPending は審査待ちユーザー一覧を返す。管理者用。
func (s *Service) ListPending(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.ListByStatus(ctx, model.UserStatusPending)
	if err != nil {
		return nil, fmt.Errorf("審査待ちユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Approve は管理者が審査待ちユーザーを承認しActiveにする。
func (s *Service) Approve(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	if user.Status != model.UserStatusPending {
		return nil, model.NewInvalidStateError("このユーザーは審査待ち状態ではありません。")
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, model.UserStatusActive); err != nil {
		return nil, fmt.Errorf("ユーザー状態の更新に失敗しました: %w", err)
	}
	return s.userRepo.FindByID(ctx, userID)
}

// Suspend は管理者がユーザーを停止する。
func (s *Service) Suspend(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, model.UserStatusSuspended); err != nil {
		return nil, fmt.Errorf("ユーザー状態の更新に失敗しました: %w", err)
	}
	return s.userRepo.FindByID(ctx, userID)
}
