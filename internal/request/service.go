// Package request はミッション依頼ハンドシェイクのドメインロジックを提供する。
package request

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

// InitiateInput はミッション依頼送信の入力。
type InitiateInput struct {
	ReceiverID     string
	RelatedPostID  string
	MissionGoal    string
	MissionDetails string
}

// Service はミッション依頼のサービス層。
// 依頼の送信、受信箱、応答（承諾によるコネクション生成）を管理する。
type Service struct {
	requestRepo      repository.RequestRepository
	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	connectionRepo   repository.ConnectionRepository
	notificationRepo repository.NotificationRepository
	logger           *slog.Logger
	now              func() time.Time
	randomSuffix     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	requestRepo repository.RequestRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	connectionRepo repository.ConnectionRepository,
	notificationRepo repository.NotificationRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		requestRepo:      requestRepo,
		userRepo:         userRepo,
		postRepo:         postRepo,
		connectionRepo:   connectionRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		now:              time.Now,
		randomSuffix: func() string {
			// チャットルームIDの推測を防ぐための乱数サフィックス
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		},
	}
}

// Initiate はブランドがフリーランサーへミッション依頼を送信する。
// 送信者側の承諾フラグは作成時点でtrueになる。
// 同一の送信者・受信者・投稿の組で未応答の依頼がある場合は重複として拒否する。
func (s *Service) Initiate(ctx context.Context, actor *model.Actor, input InitiateInput) (*model.Request, error) {
	if actor.Role != model.RoleBrand {
		return nil, model.NewRoleForbiddenError(model.RoleBrand)
	}
	if actor.ID == input.ReceiverID {
		return nil, model.NewValidationError(model.ErrCodeSelfRequest, "自分自身に依頼を送ることはできません。")
	}
	if strings.TrimSpace(input.MissionGoal) == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "ミッションゴールは必須です。")
	}

	receiver, err := s.userRepo.FindByID(ctx, input.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("受信者の取得に失敗しました: %w", err)
	}
	if receiver == nil {
		return nil, model.NewUserNotFoundError(input.ReceiverID)
	}
	if receiver.Role != model.RoleFreelancer {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest,
			"ミッション依頼の宛先はフリーランサーのみです。")
	}

	post, err := s.postRepo.FindByID(ctx, input.RelatedPostID)
	if err != nil {
		return nil, fmt.Errorf("関連投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(input.RelatedPostID)
	}

	existing, err := s.requestRepo.FindPendingByTriple(ctx, actor.ID, input.ReceiverID, input.RelatedPostID)
	if err != nil {
		return nil, fmt.Errorf("依頼の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError(model.ErrCodeDuplicateRequest,
			"この投稿について未応答の依頼が既に存在します。")
	}

	now := s.now()
	req := &model.Request{
		ID:             uuid.NewString(),
		SenderID:       actor.ID,
		ReceiverID:     input.ReceiverID,
		RelatedPostID:  input.RelatedPostID,
		MissionGoal:    input.MissionGoal,
		MissionDetails: input.MissionDetails,
		SenderAccept:   true,
		Status:         model.RequestPending,
		CreatedAt:      now,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("依頼の作成に失敗しました: %w", err)
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: input.ReceiverID,
		SenderID:    actor.ID,
		Type:        model.NotifMissionRequest,
		Title:       "ミッション依頼",
		Message:     fmt.Sprintf("新しいミッション依頼が届きました: %s", req.MissionGoal),
		RequestID:   req.ID,
		CTAStatus:   model.CTAPending,
		CreatedAt:   now,
	}
	// 通知配信の失敗で依頼の作成を巻き戻さない
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("依頼通知の作成に失敗", "request_id", req.ID, "error", err)
	}

	return req, nil
}

// ListIncoming は受信者の未応答依頼一覧を新しい順に返す。
func (s *Service) ListIncoming(ctx context.Context, actor *model.Actor) ([]*model.Request, error) {
	requests, err := s.requestRepo.ListIncoming(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("受信依頼一覧の取得に失敗しました: %w", err)
	}
	return requests, nil
}

// Respond は受信者がミッション依頼に応答する。
// 承諾した場合は両者のコネクションを生成し、依頼レコードと関連通知を破棄する。
// 拒否した場合は依頼レコードと関連通知のみを破棄する。
// どちらの場合も依頼レコードは残らない。
func (s *Service) Respond(ctx context.Context, actor *model.Actor, requestID string, accept bool) (*model.Connection, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("依頼の取得に失敗しました: %w", err)
	}
	if req == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}
	if req.ReceiverID != actor.ID {
		return nil, model.NewNotParticipantError()
	}
	if req.Status != model.RequestPending {
		return nil, model.NewInvalidStateError("この依頼は既に処理済みです。")
	}

	var conn *model.Connection
	now := s.now()

	if accept {
		conn = &model.Connection{
			ID:           uuid.NewString(),
			Participants: []string{req.SenderID, req.ReceiverID},
			RequestID:    req.ID,
			ChatRoomID:   fmt.Sprintf("room_%s_%s", req.ID, s.randomSuffix()),
			Status:       model.ConnectionNegotiating,
			LastActivity: now,
			CreatedAt:    now,
		}
		if err := s.connectionRepo.Create(ctx, conn); err != nil {
			return nil, fmt.Errorf("コネクションの生成に失敗しました: %w", err)
		}

		n := &model.Notification{
			ID:          uuid.NewString(),
			RecipientID: req.SenderID,
			SenderID:    actor.ID,
			Type:        model.NotifChat,
			Title:       "依頼承諾",
			Message:     "ミッション依頼が承諾され、セキュアラインが開通しました。",
			CTAStatus:   model.CTACompleted,
			CreatedAt:   now,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Warn("承諾通知の作成に失敗", "request_id", req.ID, "error", err)
		}
	}

	// 残留通知は日次監査のTTL削除でも回収されるため、失敗しても依頼の破棄は続行する
	if err := s.notificationRepo.DeleteByRequestID(ctx, req.ID); err != nil {
		s.logger.Warn("依頼通知の削除に失敗", "request_id", req.ID, "error", err)
	}
	if err := s.requestRepo.Delete(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("依頼の削除に失敗しました: %w", err)
	}

	return conn, nil
}
