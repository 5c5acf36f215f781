// Package rolerequest は役割アップグレード申請のドメインロジックを提供する。
package rolerequest

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

// Service は役割申請のサービス層。
// 一般ユーザーがFreelancer/Brandへの昇格を申請し、管理者が審査する。
type Service struct {
	roleRequestRepo  repository.RoleRequestRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	ssrfGuard        security.SSRFGuardService
	now              func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	roleRequestRepo repository.RoleRequestRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	ssrfGuard security.SSRFGuardService,
) *Service {
	return &Service{
		roleRequestRepo:  roleRequestRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		ssrfGuard:        ssrfGuard,
		now:              time.Now,
	}
}

// Submit は一般ユーザーが役割アップグレードを申請する。
// 申請できる役割はFreelancerとBrandのみで、未審査の申請は1件まで。
func (s *Service) Submit(ctx context.Context, actor *model.Actor, requestedRole model.Role, portfolioLink string) (*model.RoleRequest, error) {
	if requestedRole != model.RoleFreelancer && requestedRole != model.RoleBrand {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest,
			"申請できる役割はFreelancerまたはBrandのみです。")
	}
	if actor.Role == requestedRole {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "既にその役割を保持しています。")
	}
	if strings.TrimSpace(portfolioLink) == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "ポートフォリオリンクは必須です。")
	}
	if err := s.ssrfGuard.ValidateURL(portfolioLink); err != nil {
		return nil, model.NewValidationError(model.ErrCodeUnsafeURL, "ポートフォリオリンクが安全ではありません。")
	}

	pending, err := s.roleRequestRepo.FindPendingByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("申請の重複確認に失敗しました: %w", err)
	}
	if pending != nil {
		return nil, model.NewValidationError(model.ErrCodeDuplicateRequest, "未審査の申請が既に存在します。")
	}

	req := &model.RoleRequest{
		ID:            uuid.NewString(),
		UserID:        actor.ID,
		RequestedRole: requestedRole,
		PortfolioLink: portfolioLink,
		Status:        model.RoleRequestPending,
		CreatedAt:     s.now(),
	}
	if err := s.roleRequestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("申請の作成に失敗しました: %w", err)
	}
	return req, nil
}

// ListPending は審査待ち申請一覧を返す。管理者用。
func (s *Service) ListPending(ctx context.Context) ([]*model.RoleRequest, error) {
	requests, err := s.roleRequestRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("審査待ち申請一覧の取得に失敗しました: %w", err)
	}
	return requests, nil
}

// Review は管理者が申請を審査する。承認時は申請者の役割を更新する。
func (s *Service) Review(ctx context.Context, requestID string, approve bool) (*model.RoleRequest, error) {
	req, err := s.roleRequestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("申請の取得に失敗しました: %w", err)
	}
	if req == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}
	if req.Status != model.RoleRequestPending {
		return nil, model.NewInvalidStateError("この申請は既に審査済みです。")
	}

	status := model.RoleRequestRejected
	title := "役割申請却下"
	message := fmt.Sprintf("%s への役割申請は却下されました。", req.RequestedRole)
	if approve {
		status = model.RoleRequestApproved
		title = "役割申請承認"
		message = fmt.Sprintf("%s への役割申請が承認されました。", req.RequestedRole)

		if err := s.userRepo.UpdateRoleByID(ctx, req.UserID, req.RequestedRole); err != nil {
			return nil, fmt.Errorf("役割の更新に失敗しました: %w", err)
		}
	}

	if err := s.roleRequestRepo.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, fmt.Errorf("申請状態の更新に失敗しました: %w", err)
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.UserID,
		SenderID:    req.UserID,
		Type:        model.NotifSystemAlert,
		Title:       title,
		Message:     message,
		CTAStatus:   model.CTACompleted,
		CreatedAt:   s.now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("審査結果通知の作成に失敗しました: %w", err)
	}

	return s.roleRequestRepo.FindByID(ctx, requestID)
}
