// Package vip はVIPインテル掲載のドメインロジックを提供する。
package vip

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

// CreateInput はインテル掲載作成の入力。
type CreateInput struct {
	GlobalService      string
	ServiceDescription string
	PortfolioLinks     []string
	BrandName          string
	SearchingFor       string
	BrandSocialLink    string
	IntelImage         string
	MediaType          model.MediaType
}

// Service はVIPインテル掲載のサービス層。
// 掲載はプレミアムユーザーのみが作成でき、投稿時の評価スナップショットで
// フィードがソートされる。
type Service struct {
	vipPostRepo repository.VipPostRepository
	userRepo    repository.UserRepository
	ssrfGuard   security.SSRFGuardService
	sanitizer   security.ContentSanitizerService
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	vipPostRepo repository.VipPostRepository,
	userRepo repository.UserRepository,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		vipPostRepo: vipPostRepo,
		userRepo:    userRepo,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create はプレミアムユーザーがインテル掲載を作成する。
// 役割に応じたフィールドのみが意味を持ち、評価は作成時点の値で固定される。
func (s *Service) Create(ctx context.Context, actor *model.Actor, input CreateInput) (*model.VipPost, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(actor.ID)
	}
	if !user.IsPremium {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest,
			"インテル掲載はプレミアムユーザーのみ作成できます。")
	}

	switch user.Role {
	case model.RoleFreelancer:
		if strings.TrimSpace(input.GlobalService) == "" {
			return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "提供サービスは必須です。")
		}
	case model.RoleBrand:
		if strings.TrimSpace(input.BrandName) == "" || strings.TrimSpace(input.SearchingFor) == "" {
			return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "ブランド名と募集内容は必須です。")
		}
	}

	if input.BrandSocialLink != "" {
		if err := s.ssrfGuard.ValidateURL(input.BrandSocialLink); err != nil {
			return nil, model.NewValidationError(model.ErrCodeUnsafeURL, "ソーシャルリンクが安全ではありません。")
		}
	}
	for _, link := range input.PortfolioLinks {
		if err := s.ssrfGuard.ValidateURL(link); err != nil {
			return nil, model.NewValidationError(model.ErrCodeUnsafeURL, "ポートフォリオリンクが安全ではありません。")
		}
	}

	mediaType := input.MediaType
	if mediaType == "" {
		mediaType = model.MediaImage
	}

	p := &model.VipPost{
		ID:                 uuid.NewString(),
		UserID:             actor.ID,
		IntelType:          model.IntelType(user.Role),
		GlobalService:      input.GlobalService,
		ServiceDescription: s.sanitizer.Sanitize(input.ServiceDescription),
		PortfolioLinks:     input.PortfolioLinks,
		BrandName:          input.BrandName,
		SearchingFor:       s.sanitizer.Sanitize(input.SearchingFor),
		BrandSocialLink:    input.BrandSocialLink,
		IntelImage:         input.IntelImage,
		MediaType:          mediaType,
		RatingSnapshot:     user.AverageRating,
		CreatedAt:          s.now(),
	}
	if err := s.vipPostRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("インテル掲載の作成に失敗しました: %w", err)
	}
	return p, nil
}

// Feed は検証済み掲載のフィードを評価スナップショット降順で返す。
func (s *Service) Feed(ctx context.Context) ([]*model.VipPost, error) {
	posts, err := s.vipPostRepo.ListByVerified(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("インテルフィードの取得に失敗しました: %w", err)
	}
	return posts, nil
}

// PendingQueue は未検証掲載の審査キューを返す。管理者用。
func (s *Service) PendingQueue(ctx context.Context) ([]*model.VipPost, error) {
	posts, err := s.vipPostRepo.ListByVerified(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("インテル審査キューの取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Verify は管理者が掲載を検証済みにする。
func (s *Service) Verify(ctx context.Context, postID string) error {
	updated, err := s.vipPostRepo.SetVerified(ctx, postID)
	if err != nil {
		return fmt.Errorf("インテル掲載の検証に失敗しました: %w", err)
	}
	if !updated {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}

// Delete は管理者が掲載を削除する。
func (s *Service) Delete(ctx context.Context, postID string) error {
	deleted, err := s.vipPostRepo.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("インテル掲載の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}
