package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/metrics"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// DefaultNotificationTTL は通知の保持期間のデフォルト値。
const DefaultNotificationTTL = 7 * 24 * time.Hour

// AuditJob は日次のサブスクリプション監査ジョブ。
// 3つのステップを厳密にこの順序で実行する:
//  1. 期限切れの非Adminユーザーを一括で一時停止する
//  2. 停止・失効メンバーを含むActiveコレクティブをSuspendedにする
//  3. 保持期間を超過した通知を削除する
//
// ステップ2がステップ1の後に実行されることで、同じサイクル内で
// 停止されたばかりのユーザーを含むコレクティブも検出される。
type AuditJob struct {
	userRepo         repository.UserRepository
	collectiveRepo   repository.CollectiveRepository
	notificationRepo repository.NotificationRepository
	collector        metrics.MetricsCollector
	logger           *slog.Logger
	NotificationTTL  time.Duration // 通知の保持期間（デフォルト: 7日）
	now              func() time.Time
}

// NewAuditJob は新しいAuditJobを生成する。
func NewAuditJob(
	userRepo repository.UserRepository,
	collectiveRepo repository.CollectiveRepository,
	notificationRepo repository.NotificationRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *AuditJob {
	return &AuditJob{
		userRepo:         userRepo,
		collectiveRepo:   collectiveRepo,
		notificationRepo: notificationRepo,
		collector:        collector,
		logger:           logger,
		NotificationTTL:  DefaultNotificationTTL,
		now:              time.Now,
	}
}

// Run は監査の3ステップを順に実行する。
// 冪等: 既に停止済みのユーザーやコレクティブは再度処理されない。
func (j *AuditJob) Run(ctx context.Context) error {
	start := j.now()

	// ステップ1: 期限切れユーザーの一括一時停止（Adminは対象外）
	paused, err := j.userRepo.PauseExpired(ctx, start)
	if err != nil {
		j.collector.RecordSweepFailure("audit")
		return fmt.Errorf("期限切れユーザーの一時停止に失敗: %w", err)
	}
	j.collector.RecordUsersPaused(int(paused))

	// ステップ2: 資格を失ったメンバーを含むActiveコレクティブの停止。
	// ステップ1の結果を反映させるため、必ず停止処理の後に実行する
	ids, err := j.collectiveRepo.ListActiveWithIneligibleMembers(ctx, start)
	if err != nil {
		j.collector.RecordSweepFailure("audit")
		return fmt.Errorf("停止対象コレクティブの検出に失敗: %w", err)
	}
	var suspended int64
	if len(ids) > 0 {
		suspended, err = j.collectiveRepo.SuspendActive(ctx, ids)
		if err != nil {
			j.collector.RecordSweepFailure("audit")
			return fmt.Errorf("コレクティブの停止に失敗: %w", err)
		}
	}
	j.collector.RecordCollectivesSuspended(int(suspended))

	// ステップ3: 保持期間を超過した通知の削除
	cutoff := start.Add(-j.NotificationTTL)
	expired, err := j.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.collector.RecordSweepFailure("audit")
		return fmt.Errorf("期限切れ通知の削除に失敗: %w", err)
	}
	j.collector.RecordNotificationsExpired(int(expired))

	j.collector.RecordSweepLatency("audit", time.Since(start))
	j.logger.Info("日次監査が完了しました",
		slog.Int64("users_paused", paused),
		slog.Int64("collectives_suspended", suspended),
		slog.Int64("notifications_expired", expired),
	)

	return nil
}
