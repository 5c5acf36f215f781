package sweep

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// auditLockKey は日次監査の分散ロックキー。
const auditLockKey = "chrikitn:sweep:audit"

// auditLockTTL は監査ロックの自動失効時間。
// 監査の実行時間より十分長く、クラッシュ時の回復を妨げない長さにする。
const auditLockTTL = 30 * time.Minute

// Job はスイープジョブの実行インターフェース。
type Job interface {
	Run(ctx context.Context) error
}

// Runner はパージと日次監査のスケジューリングを行う。
// パージはティッカー間隔で高頻度に、監査は毎日指定時（UTC）に1回実行する。
// 前回のパージが走行中の場合、そのティックはスキップされる。
type Runner struct {
	purge        Job
	audit        Job
	locker       Locker
	logger       *slog.Logger
	AuditHourUTC int // 監査を実行するUTC時（デフォルト: 3）

	purgeRunning atomic.Bool
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(purge, audit Job, locker Locker, logger *slog.Logger) *Runner {
	return &Runner{
		purge:        purge,
		audit:        audit,
		locker:       locker,
		logger:       logger,
		AuditHourUTC: 3,
	}
}

// Start はスイーパーを起動する。コンテキストがキャンセルされるまで実行を継続する。
func (r *Runner) Start(ctx context.Context, purgeInterval time.Duration) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	auditTimer := time.NewTimer(r.untilNextAudit(time.Now().UTC()))
	defer auditTimer.Stop()

	r.logger.Info("ライフサイクルスイーパーを開始しました",
		slog.Duration("purge_interval", purgeInterval),
		slog.Int("audit_hour_utc", r.AuditHourUTC),
	)

	// 起動直後に1回パージを実行
	r.runPurge(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ライフサイクルスイーパーを停止しました")
			return
		case <-ticker.C:
			r.runPurge(ctx)
		case <-auditTimer.C:
			r.runAudit(ctx)
			auditTimer.Reset(r.untilNextAudit(time.Now().UTC()))
		}
	}
}

// runPurge はパージを1回実行する。前回の実行が終わっていない場合はスキップする。
func (r *Runner) runPurge(ctx context.Context) {
	if !r.purgeRunning.CompareAndSwap(false, true) {
		r.logger.Warn("前回のパージが実行中のためスキップします")
		return
	}
	defer r.purgeRunning.Store(false)

	if err := r.purge.Run(ctx); err != nil {
		r.logger.Error("コネクションパージの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// runAudit は分散ロックを取得して日次監査を1回実行する。
// 他インスタンスがロックを保持している場合はスキップする。
func (r *Runner) runAudit(ctx context.Context) {
	acquired, err := r.locker.TryLock(ctx, auditLockKey, auditLockTTL)
	if err != nil {
		r.logger.Error("監査ロックの取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	if !acquired {
		r.logger.Info("他インスタンスが監査を実行中のためスキップします")
		return
	}
	defer func() {
		if err := r.locker.Unlock(ctx, auditLockKey); err != nil {
			r.logger.Error("監査ロックの解放に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := r.audit.Run(ctx); err != nil {
		r.logger.Error("日次監査の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// untilNextAudit は次の監査時刻までの待ち時間を返す。
func (r *Runner) untilNextAudit(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), r.AuditHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
