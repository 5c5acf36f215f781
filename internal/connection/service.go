// Package connection はチャットコネクションとエリート化ハンドシェイクの
// ドメインロジックを提供する。
package connection

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

// Service はコネクションのサービス層。
// メッセージ送受信、エリート化、明示的な終了を管理する。
type Service struct {
	connectionRepo   repository.ConnectionRepository
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository
	sanitizer        security.ContentSanitizerService
	now              func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	connectionRepo repository.ConnectionRepository,
	messageRepo repository.MessageRepository,
	notificationRepo repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		connectionRepo:   connectionRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		sanitizer:        sanitizer,
		now:              time.Now,
	}
}

// ListMine は自分が参加するコネクション一覧を最終アクティビティ順に返す。
func (s *Service) ListMine(ctx context.Context, actor *model.Actor) ([]*model.Connection, error) {
	connections, err := s.connectionRepo.ListByParticipant(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("コネクション一覧の取得に失敗しました: %w", err)
	}
	return connections, nil
}

// History は参加者本人にのみコネクションのメッセージ履歴を時刻昇順で返す。
func (s *Service) History(ctx context.Context, actor *model.Actor, connectionID string) ([]*model.Message, error) {
	conn, err := s.loadForParticipant(ctx, actor, connectionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByConnection(ctx, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("メッセージ履歴の取得に失敗しました: %w", err)
	}
	return messages, nil
}

// Send はコネクションにメッセージを送信する。
// 本文はサニタイズしてから保存し、コネクションの最終アクティビティを更新する。
// 最終アクティビティの更新がパージ対象からの除外条件になる。
func (s *Service) Send(ctx context.Context, actor *model.Actor, connectionID, content, fileURL string) (*model.Message, error) {
	conn, err := s.loadForParticipant(ctx, actor, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status == model.ConnectionTerminated {
		return nil, model.NewInvalidStateError("終了済みのセキュアラインには送信できません。")
	}

	clean := s.sanitizer.Sanitize(content)
	if strings.TrimSpace(clean) == "" && fileURL == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "メッセージ本文または添付が必要です。")
	}

	now := s.now()
	m := &model.Message{
		ID:           uuid.NewString(),
		ConnectionID: conn.ID,
		SenderID:     actor.ID,
		Content:      clean,
		FileURL:      fileURL,
		CreatedAt:    now,
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("メッセージの保存に失敗しました: %w", err)
	}

	if err := s.connectionRepo.Touch(ctx, conn.ID, m.ID, now); err != nil {
		return nil, fmt.Errorf("最終アクティビティの更新に失敗しました: %w", err)
	}

	// 相手側へのチャット通知
	for _, p := range conn.Participants {
		if p == actor.ID {
			continue
		}
		n := &model.Notification{
			ID:          uuid.NewString(),
			RecipientID: p,
			SenderID:    actor.ID,
			Type:        model.NotifChat,
			Title:       "新着メッセージ",
			Message:     "セキュアラインに新しいメッセージが届きました。",
			CTAStatus:   model.CTACompleted,
			CreatedAt:   now,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("チャット通知の作成に失敗しました: %w", err)
		}
	}

	return m, nil
}

// MarkEliteReady は参加者がエリート化に同意する。
// 片方のみの同意でelite_pending、両者の同意でis_elite=trueかつactiveへ遷移する。
// エリート化されたコネクションは自動パージの対象外となる。
func (s *Service) MarkEliteReady(ctx context.Context, actor *model.Actor, connectionID string) (*model.Connection, error) {
	conn, err := s.loadForParticipant(ctx, actor, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status == model.ConnectionTerminated {
		return nil, model.NewInvalidStateError("終了済みのセキュアラインはエリート化できません。")
	}
	if conn.IsElite {
		return conn, nil
	}

	ready := conn.EliteReady
	already := false
	for _, id := range ready {
		if id == actor.ID {
			already = true
			break
		}
	}
	if !already {
		ready = append(ready, actor.ID)
	}

	isElite := true
	for _, p := range conn.Participants {
		found := false
		for _, id := range ready {
			if id == p {
				found = true
				break
			}
		}
		if !found {
			isElite = false
			break
		}
	}

	status := model.ConnectionElitePending
	if isElite {
		status = model.ConnectionActive
	}

	if err := s.connectionRepo.UpdateEliteState(ctx, conn.ID, ready, isElite, status); err != nil {
		return nil, fmt.Errorf("エリート状態の更新に失敗しました: %w", err)
	}

	return s.connectionRepo.FindByID(ctx, conn.ID)
}

// Terminate は参加者がコネクションを明示的に終了する。
// メッセージを先に消してから本体を削除する。
func (s *Service) Terminate(ctx context.Context, actor *model.Actor, connectionID string) error {
	conn, err := s.loadForParticipant(ctx, actor, connectionID)
	if err != nil {
		return err
	}

	if _, err := s.messageRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}
	if err := s.connectionRepo.Delete(ctx, conn.ID); err != nil {
		return fmt.Errorf("コネクションの削除に失敗しました: %w", err)
	}
	return nil
}

// loadForParticipant はコネクションを取得し、参加者本人であることを検証する。
func (s *Service) loadForParticipant(ctx context.Context, actor *model.Actor, connectionID string) (*model.Connection, error) {
	conn, err := s.connectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("コネクションの取得に失敗しました: %w", err)
	}
	if conn == nil {
		return nil, model.NewConnectionNotFoundError(connectionID)
	}
	if !conn.HasParticipant(actor.ID) {
		return nil, model.NewNotParticipantError()
	}
	return conn, nil
}
