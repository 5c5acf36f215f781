// Package post はプロジェクト投稿のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/security"
)

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Domain       string
	GlobalVision string
	Description  string
	Goal         string
	PostImage    string
}

// Service はプロジェクト投稿のサービス層。
// 投稿は管理者の検証を通過するまで公開フィードに表示されない。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create はブランドがプロジェクト投稿を作成する。本文はサニタイズして保存する。
func (s *Service) Create(ctx context.Context, actor *model.Actor, input CreateInput) (*model.Post, error) {
	if actor.Role != model.RoleBrand {
		return nil, model.NewRoleForbiddenError(model.RoleBrand)
	}
	if strings.TrimSpace(input.Domain) == "" || strings.TrimSpace(input.GlobalVision) == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "ドメインとグローバルビジョンは必須です。")
	}

	now := s.now()
	p := &model.Post{
		ID:           uuid.NewString(),
		UserID:       actor.ID,
		Domain:       input.Domain,
		GlobalVision: s.sanitizer.Sanitize(input.GlobalVision),
		Description:  s.sanitizer.Sanitize(input.Description),
		Goal:         s.sanitizer.Sanitize(input.Goal),
		PostImage:    input.PostImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return p, nil
}

// Feed は検証済み投稿の公開フィードを新しい順に返す。
func (s *Service) Feed(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByVerified(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("投稿フィードの取得に失敗しました: %w", err)
	}
	return posts, nil
}

// PendingQueue は未検証投稿の審査キューを返す。管理者用。
func (s *Service) PendingQueue(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByVerified(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("審査キューの取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Verify は管理者が投稿を検証済みにする。
func (s *Service) Verify(ctx context.Context, postID string) error {
	updated, err := s.postRepo.SetVerified(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の検証に失敗しました: %w", err)
	}
	if !updated {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}

// Delete は管理者が投稿を削除する。
func (s *Service) Delete(ctx context.Context, postID string) error {
	deleted, err := s.postRepo.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}
