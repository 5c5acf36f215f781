// Package sweep はライフサイクルスイーパーのバックグラウンドジョブを提供する。
// 高頻度のコネクションパージと日次のサブスクリプション監査を含む。
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/metrics"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// DefaultRetention はコネクションの無通信保持期間のデフォルト値。
const DefaultRetention = 5 * 24 * time.Hour

// PurgeJob は無通信の非エリートコネクションを削除するジョブ。
// エリート化されたコネクションは対象外となる。
type PurgeJob struct {
	connectionRepo repository.ConnectionRepository
	messageRepo    repository.MessageRepository
	collector      metrics.MetricsCollector
	logger         *slog.Logger
	Retention      time.Duration // 無通信とみなすまでの期間（デフォルト: 5日）
}

// NewPurgeJob は新しいPurgeJobを生成する。
func NewPurgeJob(
	connectionRepo repository.ConnectionRepository,
	messageRepo repository.MessageRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *PurgeJob {
	return &PurgeJob{
		connectionRepo: connectionRepo,
		messageRepo:    messageRepo,
		collector:      collector,
		logger:         logger,
		Retention:      DefaultRetention,
	}
}

// Run は保持期間を超過した非エリートコネクションを削除する。
// 孤児メッセージを残さないため、各コネクションについてメッセージを
// 削除してから本体を削除する。個別の失敗はログに記録して続行し、
// 1件の異常がサイクル全体を止めないようにする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *PurgeJob) Run(ctx context.Context) error {
	start := time.Now()
	threshold := start.Add(-j.Retention)

	connections, err := j.connectionRepo.ListIdleBefore(ctx, threshold)
	if err != nil {
		j.collector.RecordSweepFailure("purge")
		return fmt.Errorf("パージ対象の取得に失敗: %w", err)
	}

	var purged, messagesDeleted int64
	for _, conn := range connections {
		deleted, err := j.messageRepo.DeleteByConnection(ctx, conn.ID)
		if err != nil {
			j.logger.Error("メッセージの削除に失敗しました",
				slog.String("connection_id", conn.ID),
				slog.String("error", err.Error()),
			)
			j.collector.RecordSweepFailure("purge")
			continue
		}
		messagesDeleted += deleted

		if err := j.connectionRepo.Delete(ctx, conn.ID); err != nil {
			j.logger.Error("コネクションの削除に失敗しました",
				slog.String("connection_id", conn.ID),
				slog.String("error", err.Error()),
			)
			j.collector.RecordSweepFailure("purge")
			continue
		}
		purged++
	}

	j.collector.RecordConnectionsPurged(int(purged))
	j.collector.RecordMessagesPurged(int(messagesDeleted))
	j.collector.RecordSweepLatency("purge", time.Since(start))

	if purged > 0 {
		j.logger.Info("コネクションパージが完了しました",
			slog.Int64("purged_count", purged),
			slog.Int64("messages_deleted", messagesDeleted),
			slog.Duration("retention", j.Retention),
		)
	}

	return nil
}
