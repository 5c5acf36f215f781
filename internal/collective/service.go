// Package collective はコレクティブの展開ライフサイクルのドメインロジックを提供する。
package collective

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// InitiateInput はコレクティブ結成の入力。
type InitiateInput struct {
	Name           string
	Logo           string
	Slogan         string
	Description    string
	HeroBackground string
	MemberIDs      []string
	Services       []model.CollectiveService
	PortfolioLinks []string
}

// Service はコレクティブのサービス層。
// 結成、招待応答、管理者展開、削除の状態遷移を管理する。
type Service struct {
	collectiveRepo   repository.CollectiveRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	logger           *slog.Logger
	now              func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	collectiveRepo repository.CollectiveRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		collectiveRepo:   collectiveRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// Initiate はフリーランサーがコレクティブを結成する。
// 結成者は自動的にAcceptedメンバーとなり、他の指名メンバーには
// Pendingエントリと招待通知が作成される。初期状態はAssembling。
func (s *Service) Initiate(ctx context.Context, actor *model.Actor, input InitiateInput) (*model.Collective, error) {
	if actor.Role != model.RoleFreelancer {
		return nil, model.NewRoleForbiddenError(model.RoleFreelancer)
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "コレクティブ名は必須です。")
	}
	if input.Logo == "" || input.HeroBackground == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingAssets, "ロゴとヒーロー背景の両方が必要です。")
	}
	if len(input.Services) > model.MaxCollectiveServices {
		return nil, model.NewValidationError(model.ErrCodeTooManyServices,
			fmt.Sprintf("サービス項目は最大%d件までです。", model.MaxCollectiveServices))
	}

	existing, err := s.collectiveRepo.FindByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("コレクティブ名の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError(model.ErrCodeDuplicateName, "同名のコレクティブが既に存在します。")
	}

	// 結成者以外の指名メンバーを検証する
	inviteeIDs := make([]string, 0, len(input.MemberIDs))
	seen := map[string]bool{actor.ID: true}
	for _, id := range input.MemberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		member, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
		}
		if member == nil {
			return nil, model.NewUserNotFoundError(id)
		}
		if member.Role != model.RoleFreelancer {
			return nil, model.NewValidationError(model.ErrCodeInvalidRequest,
				"コレクティブのメンバーはフリーランサーのみ指名できます。")
		}
		inviteeIDs = append(inviteeIDs, id)
	}

	// メンバーゼロのコレクティブは作成できない
	if len(inviteeIDs) == 0 {
		return nil, model.NewValidationError(model.ErrCodeEmptyMemberList,
			"コレクティブには結成者以外のメンバーが少なくとも1人必要です。")
	}

	now := s.now()
	c := &model.Collective{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(input.Name),
		Logo:           input.Logo,
		Slogan:         input.Slogan,
		Description:    input.Description,
		HeroBackground: input.HeroBackground,
		OwnerID:        actor.ID,
		PortfolioLinks: input.PortfolioLinks,
		Services:       input.Services,
		Status:         model.CollectiveAssembling,
		CreatedAt:      now,
	}
	c.Members = append(c.Members, model.CollectiveMember{
		UserID:   actor.ID,
		Status:   model.MemberAccepted,
		JoinedAt: now,
	})
	for _, id := range inviteeIDs {
		c.Members = append(c.Members, model.CollectiveMember{
			UserID:   id,
			Status:   model.MemberPending,
			JoinedAt: now,
		})
	}

	if err := s.collectiveRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コレクティブの作成に失敗しました: %w", err)
	}

	// 招待通知を一括作成する
	notifications := make([]*model.Notification, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		notifications = append(notifications, &model.Notification{
			ID:           uuid.NewString(),
			RecipientID:  id,
			SenderID:     actor.ID,
			Type:         model.NotifCollectiveInvite,
			Title:        "コレクティブ招待",
			Message:      fmt.Sprintf("コレクティブ「%s」に招待されました。", c.Name),
			CollectiveID: c.ID,
			CTAStatus:    model.CTAPending,
			CreatedAt:    now,
		})
	}
	// 通知配信の失敗で結成を巻き戻さない
	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		s.logger.Warn("招待通知の作成に失敗", "collective_id", c.ID, "error", err)
	}

	return c, nil
}

// AcceptInvitation は招待メンバーが招待に応答する。
// acceptがtrueの場合はPending→Acceptedへ遷移し、全メンバーが承諾済みに
// なった瞬間にコレクティブをAssembling→Awaiting Adminへ進める。
// falseの場合はPending→Declinedへ遷移する。
func (s *Service) AcceptInvitation(ctx context.Context, actor *model.Actor, collectiveID string, accept bool) (*model.Collective, error) {
	c, err := s.collectiveRepo.FindByID(ctx, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("コレクティブの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCollectiveNotFoundError(collectiveID)
	}
	if c.Status != model.CollectiveAssembling {
		return nil, model.NewInvalidStateError("このコレクティブは既にメンバー募集を終了しています。")
	}

	invited := false
	for _, m := range c.Members {
		if m.UserID == actor.ID {
			invited = true
			break
		}
	}
	if !invited {
		return nil, model.NewNotMemberError()
	}

	to := model.MemberDeclined
	cta := model.CTAIgnored
	if accept {
		to = model.MemberAccepted
		cta = model.CTACompleted
	}

	// Pendingの場合のみ遷移させ、二重応答は無効化する
	updated, err := s.collectiveRepo.UpdateMemberStatus(ctx, collectiveID, actor.ID, model.MemberPending, to)
	if err != nil {
		return nil, fmt.Errorf("メンバー状態の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewInvalidStateError("この招待には既に応答済みです。")
	}

	// CTA更新は表示上の整合のみで、失敗しても全員承諾の判定は続行する
	if err := s.notificationRepo.UpdateCTAByCollective(ctx, collectiveID, actor.ID, cta); err != nil {
		s.logger.Warn("通知CTAの更新に失敗", "collective_id", collectiveID, "user_id", actor.ID, "error", err)
	}

	if accept {
		// 全員承諾の判定と状態前進。条件付きUPDATEのため同時応答でも1回だけ遷移する
		remaining, err := s.collectiveRepo.CountMembersNot(ctx, collectiveID, model.MemberAccepted)
		if err != nil {
			return nil, fmt.Errorf("メンバー承諾状況の確認に失敗しました: %w", err)
		}
		if remaining == 0 {
			advanced, err := s.collectiveRepo.UpdateStatusIf(ctx, collectiveID,
				model.CollectiveAssembling, model.CollectiveAwaitingAdmin)
			if err != nil {
				return nil, fmt.Errorf("コレクティブ状態の前進に失敗しました: %w", err)
			}
			if advanced {
				// 結成者に承認待ち入りを知らせる
				n := &model.Notification{
					ID:           uuid.NewString(),
					RecipientID:  c.OwnerID,
					SenderID:     actor.ID,
					Type:         model.NotifSystemAlert,
					Title:        "全メンバー承諾",
					Message:      fmt.Sprintf("コレクティブ「%s」の全メンバーが承諾しました。管理者の承認待ちです。", c.Name),
					CollectiveID: c.ID,
					CTAStatus:    model.CTACompleted,
					CreatedAt:    s.now(),
				}
				if err := s.notificationRepo.Create(ctx, n); err != nil {
					s.logger.Warn("承認待ち通知の作成に失敗", "collective_id", c.ID, "error", err)
				}
			}
		}
	}

	return s.collectiveRepo.FindByID(ctx, collectiveID)
}

// Deploy は管理者がAwaiting Adminのコレクティブを稼働状態にする。
// 条件付きUPDATEにより、Assembling中やSuspended中の展開要求は何も変更しない。
func (s *Service) Deploy(ctx context.Context, collectiveID string) (*model.Collective, error) {
	c, err := s.collectiveRepo.FindByID(ctx, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("コレクティブの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCollectiveNotFoundError(collectiveID)
	}

	deployed, err := s.collectiveRepo.Deploy(ctx, collectiveID, s.now())
	if err != nil {
		return nil, fmt.Errorf("コレクティブの展開に失敗しました: %w", err)
	}
	if !deployed {
		return nil, model.NewInvalidStateError(
			fmt.Sprintf("状態 %s のコレクティブは展開できません。承認待ちのもののみ展開可能です。", c.Status))
	}

	return s.collectiveRepo.FindByID(ctx, collectiveID)
}

// Delete は管理者がコレクティブを削除する。任意の状態から削除可能。
func (s *Service) Delete(ctx context.Context, collectiveID string) error {
	c, err := s.collectiveRepo.FindByID(ctx, collectiveID)
	if err != nil {
		return fmt.Errorf("コレクティブの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCollectiveNotFoundError(collectiveID)
	}

	if err := s.collectiveRepo.Delete(ctx, collectiveID); err != nil {
		return fmt.Errorf("コレクティブの削除に失敗しました: %w", err)
	}
	return nil
}

// Get は指定IDのコレクティブを返す。
func (s *Service) Get(ctx context.Context, collectiveID string) (*model.Collective, error) {
	c, err := s.collectiveRepo.FindByID(ctx, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("コレクティブの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCollectiveNotFoundError(collectiveID)
	}
	return c, nil
}

// ListByStatus は指定状態のコレクティブ一覧を返す。
// 公開フィードはActive、管理者の承認キューはAwaiting Adminを指定する。
func (s *Service) ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error) {
	collectives, err := s.collectiveRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("コレクティブ一覧の取得に失敗しました: %w", err)
	}
	return collectives, nil
}
