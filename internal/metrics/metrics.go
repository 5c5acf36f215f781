// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スイーパーやハンドラー層から利用する。
type MetricsCollector interface {
	RecordConnectionsPurged(count int)
	RecordMessagesPurged(count int)
	RecordUsersPaused(count int)
	RecordCollectivesSuspended(count int)
	RecordNotificationsExpired(count int)
	RecordSweepFailure(job string)
	RecordSweepLatency(job string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	connectionsPurged    prometheus.Counter
	messagesPurged       prometheus.Counter
	usersPaused          prometheus.Counter
	collectivesSuspended prometheus.Counter
	notificationsExpired prometheus.Counter
	sweepFail            *prometheus.CounterVec
	sweepLatency         *prometheus.HistogramVec
	httpStatus           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connectionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chrikitn_connections_purged_total",
			Help: "パージされたコネクションの合計数",
		}),
		messagesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chrikitn_messages_purged_total",
			Help: "パージされたメッセージの合計数",
		}),
		usersPaused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chrikitn_users_paused_total",
			Help: "日次監査で一時停止されたユーザーの合計数",
		}),
		collectivesSuspended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chrikitn_collectives_suspended_total",
			Help: "日次監査で停止されたコレクティブの合計数",
		}),
		notificationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chrikitn_notifications_expired_total",
			Help: "保持期間超過で削除された通知の合計数",
		}),
		sweepFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chrikitn_sweep_fail_total",
			Help: "スイープジョブ失敗の合計数",
		}, []string{"job"}),
		sweepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chrikitn_sweep_latency_seconds",
			Help:    "スイープジョブの実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chrikitn_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.connectionsPurged,
		c.messagesPurged,
		c.usersPaused,
		c.collectivesSuspended,
		c.notificationsExpired,
		c.sweepFail,
		c.sweepLatency,
		c.httpStatus,
	)

	return c
}

// RecordConnectionsPurged はパージされたコネクション数を記録する。
func (c *Collector) RecordConnectionsPurged(count int) {
	c.connectionsPurged.Add(float64(count))
}

// RecordMessagesPurged はパージされたメッセージ数を記録する。
func (c *Collector) RecordMessagesPurged(count int) {
	c.messagesPurged.Add(float64(count))
}

// RecordUsersPaused は一時停止されたユーザー数を記録する。
func (c *Collector) RecordUsersPaused(count int) {
	c.usersPaused.Add(float64(count))
}

// RecordCollectivesSuspended は停止されたコレクティブ数を記録する。
func (c *Collector) RecordCollectivesSuspended(count int) {
	c.collectivesSuspended.Add(float64(count))
}

// RecordNotificationsExpired は削除された期限切れ通知数を記録する。
func (c *Collector) RecordNotificationsExpired(count int) {
	c.notificationsExpired.Add(float64(count))
}

// RecordSweepFailure はスイープジョブの失敗を記録する。
func (c *Collector) RecordSweepFailure(job string) {
	c.sweepFail.WithLabelValues(job).Inc()
}

// RecordSweepLatency はスイープジョブの実行時間を記録する。
func (c *Collector) RecordSweepLatency(job string, duration time.Duration) {
	c.sweepLatency.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
