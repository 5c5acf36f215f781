// Package notification は通知シグナルのドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// Service は通知のサービス層。
// 通知の生成はイベント発生元の各サービスが行い、ここでは閲覧と既読化を扱う。
type Service struct {
	notificationRepo repository.NotificationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

// ListMine は自分宛の通知一覧を新しい順に返す。
func (s *Service) ListMine(ctx context.Context, actor *model.Actor) ([]*model.Notification, error) {
	notifications, err := s.notificationRepo.ListByRecipient(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return notifications, nil
}

// MarkRead は自分宛の通知を既読にする。
// 他人の通知IDを指定しても何も起きない。
func (s *Service) MarkRead(ctx context.Context, actor *model.Actor, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, actor.ID); err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	return nil
}
