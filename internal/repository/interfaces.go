// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ListByStatus は指定審査状態のユーザー一覧を新しい順に返す。
	ListByStatus(ctx context.Context, status model.UserStatus) ([]*model.User, error)

	// UpdateStatus はユーザーの審査状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error

	// UpdateRoleByID は指定IDのユーザーの役割を更新する。
	UpdateRoleByID(ctx context.Context, id string, role model.Role) error

	// UpdateRoleByEmail はメールアドレス一致のユーザーの役割を更新する。
	// 該当ユーザーが存在しなくてもエラーにならない（ホワイトリスト先行登録を許容）。
	UpdateRoleByEmail(ctx context.Context, email string, role model.Role) error

	// ExtendAccess はアクセス期限を更新し、アカウントの一時停止を解除して
	// Active状態へ復帰させる。支払い承認時に使用する。
	ExtendAccess(ctx context.Context, id string, until time.Time) error

	// PauseExpired は期限切れかつ未停止の非Adminユーザーを一括で一時停止する。
	// 日次監査のステップ1。停止した件数を返す。
	PauseExpired(ctx context.Context, now time.Time) (int64, error)

	// SearchOperatives は稼働可能なフリーランサーを名前/メールの部分一致で検索する。
	// ステイシス条件（Active・検証済み・未停止・未失効）を満たすユーザーのみ返す。
	SearchOperatives(ctx context.Context, query string, now time.Time, limit int) ([]*model.User, error)

	// Stats は管理者ダッシュボード用の集計を返す。
	Stats(ctx context.Context, growthSince time.Time) (*UserStats, error)
}

// UserStats は管理者ダッシュボードのユーザー集計。
type UserStats struct {
	ByStatus   map[model.UserStatus]int
	ByRole     map[model.Role]int
	ByVerified map[bool]int
	Growth     []MonthlyCount
}

// MonthlyCount は月別の登録件数。
type MonthlyCount struct {
	Year  int
	Month int
	Count int
}

// CollectiveRepository はコレクティブデータの永続化インターフェース。
type CollectiveRepository interface {
	// Create はコレクティブとメンバー・サービス行を同一トランザクションで作成する。
	Create(ctx context.Context, c *model.Collective) error

	// FindByID は指定IDのコレクティブをメンバー・サービス込みで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Collective, error)

	// FindByName は名前完全一致でコレクティブを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Collective, error)

	// ListByStatus は指定状態のコレクティブ一覧を評価降順で返す。
	ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error)

	// UpdateMemberStatus はメンバーの招待応答状態を条件付きで更新する。
	// 現在の状態がfromの場合のみtoへ遷移させ、更新が行われたかを返す。
	UpdateMemberStatus(ctx context.Context, collectiveID, userID string, from, to model.MemberStatus) (bool, error)

	// CountMembersNot はステータスがstatus以外のメンバー数を返す。
	// 全員承諾判定（CountMembersNot(Accepted) == 0）に使用する。
	CountMembersNot(ctx context.Context, collectiveID string, status model.MemberStatus) (int, error)

	// UpdateStatusIf はコレクティブ状態を条件付きで更新する。
	// 現在の状態がfromの場合のみtoへ遷移させ、更新が行われたかを返す。
	UpdateStatusIf(ctx context.Context, id string, from, to model.CollectiveStatus) (bool, error)

	// Deploy はAwaiting Adminのコレクティブのみを稼働状態へ遷移させる。
	// status=Active、is_deployed=true、deployed_at=atを単一の条件付きUPDATEで設定し、
	// 遷移が行われたかを返す。他状態からの呼び出しは何も変更しない。
	Deploy(ctx context.Context, id string, at time.Time) (bool, error)

	// ListActiveWithIneligibleMembers は停止・失効メンバーを1人以上含む
	// ActiveなコレクティブのID一覧を返す。日次監査のステップ2。
	ListActiveWithIneligibleMembers(ctx context.Context, now time.Time) ([]string, error)

	// SuspendActive は指定IDのうちActiveなものをSuspendedへ遷移させ、件数を返す。
	SuspendActive(ctx context.Context, ids []string) (int64, error)

	// Delete は指定IDのコレクティブを削除する。
	// メンバー・サービス行はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// RequestRepository はミッション依頼の永続化インターフェース。
type RequestRepository interface {
	// Create は依頼を作成する。
	Create(ctx context.Context, r *model.Request) error

	// FindByID は指定IDの依頼を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Request, error)

	// FindPendingByTriple はsender/receiver/postの組でpendingの依頼を検索する。
	// 見つからない場合はnilを返す。
	FindPendingByTriple(ctx context.Context, senderID, receiverID, postID string) (*model.Request, error)

	// ListIncoming は受信者のpending依頼一覧を新しい順に返す。
	ListIncoming(ctx context.Context, receiverID string) ([]*model.Request, error)

	// Delete は指定IDの依頼を削除する。
	Delete(ctx context.Context, id string) error
}

// PostRepository はプロジェクト投稿の永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, p *model.Post) error
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// ListByVerified は検証状態で絞った投稿一覧を新しい順に返す。
	ListByVerified(ctx context.Context, verified bool) ([]*model.Post, error)
	// SetVerified は投稿を検証済みにする。対象が存在したかを返す。
	SetVerified(ctx context.Context, id string) (bool, error)
	// Delete は指定IDの投稿を削除する。対象が存在したかを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// VipPostRepository はVIPインテル掲載の永続化インターフェース。
type VipPostRepository interface {
	// Create は掲載を作成する。
	Create(ctx context.Context, p *model.VipPost) error
	// ListByVerified は検証状態で絞った掲載一覧を返す。
	// 検証済みは評価スナップショット降順・新しい順、未検証は新しい順。
	ListByVerified(ctx context.Context, verified bool) ([]*model.VipPost, error)
	// SetVerified は掲載を検証済みにする。対象が存在したかを返す。
	SetVerified(ctx context.Context, id string) (bool, error)
	// Delete は指定IDの掲載を削除する。対象が存在したかを返す。
	Delete(ctx context.Context, id string) (bool, error)
	// CountByVerified は検証状態別の掲載件数を返す。
	CountByVerified(ctx context.Context) (map[bool]int, error)
}

// PaymentRepository はD17レシートの永続化インターフェース。
type PaymentRepository interface {
	// Create はレシート提出記録を作成する。
	Create(ctx context.Context, p *model.Payment) error

	// FindByID は指定IDのレシートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Payment, error)

	// ListPending は検証待ちレシート一覧を新しい順に返す。
	ListPending(ctx context.Context) ([]*model.Payment, error)

	// UpdateStatusIf はレシート状態を条件付きで更新する。
	// 現在の状態がfromの場合のみtoへ遷移させ、更新が行われたかを返す。
	UpdateStatusIf(ctx context.Context, id string, from, to model.PaymentStatus) (bool, error)
}

// NotificationRepository は通知シグナルの永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成する。
	Create(ctx context.Context, n *model.Notification) error

	// CreateBatch は複数の通知を一括作成する。
	CreateBatch(ctx context.Context, ns []*model.Notification) error

	// ListByRecipient は受信者の通知一覧を新しい順に返す。
	ListByRecipient(ctx context.Context, recipientID string) ([]*model.Notification, error)

	// MarkRead は受信者本人の通知を既読にする。
	MarkRead(ctx context.Context, id, recipientID string) error

	// UpdateCTAByCollective はコレクティブ招待通知のCTA状態を更新する。
	UpdateCTAByCollective(ctx context.Context, collectiveID, recipientID string, status model.CTAStatus) error

	// DeleteByRequestID はミッション依頼に紐づく通知を削除する。
	DeleteByRequestID(ctx context.Context, requestID string) error

	// DeleteOlderThan は作成時刻がcutoffより古い通知を削除し、件数を返す。
	// 日次スイープの保持期間（7日）強制に使用する。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AccessRepository は管理者ホワイトリストの永続化インターフェース。
type AccessRepository interface {
	// Find はメールアドレスでエントリを検索する。見つからない場合はnilを返す。
	Find(ctx context.Context, email string) (*model.Access, error)
	// Create はエントリを追加する。
	Create(ctx context.Context, a *model.Access) error
	// List は全エントリを付与日時の新しい順に返す。
	List(ctx context.Context) ([]*model.Access, error)
	// Delete はエントリを削除する。
	Delete(ctx context.Context, email string) error
}

// RoleRequestRepository は役割アップグレード申請の永続化インターフェース。
type RoleRequestRepository interface {
	// Create は申請を作成する。
	Create(ctx context.Context, r *model.RoleRequest) error
	// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.RoleRequest, error)
	// FindPendingByUser はユーザーの審査待ち申請を検索する。見つからない場合はnilを返す。
	FindPendingByUser(ctx context.Context, userID string) (*model.RoleRequest, error)
	// ListPending は審査待ち申請一覧を新しい順に返す。
	ListPending(ctx context.Context) ([]*model.RoleRequest, error)
	// UpdateStatus は申請の審査状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.RoleRequestStatus) error
}

// ConnectionRepository はチャットコネクションの永続化インターフェース。
// 実装はMongoDBのconnectionsコレクションを使用する。
type ConnectionRepository interface {
	// Create はコネクションを作成する。
	Create(ctx context.Context, c *model.Connection) error

	// FindByID は指定IDのコネクションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Connection, error)

	// ListByParticipant は指定ユーザーが参加するコネクション一覧を
	// 最終アクティビティの新しい順に返す。
	ListByParticipant(ctx context.Context, userID string) ([]*model.Connection, error)

	// ListIdleBefore は最終アクティビティがthresholdより古い非エリートの
	// コネクション一覧を返す。スイーパーのパージ対象選定に使用する。
	ListIdleBefore(ctx context.Context, threshold time.Time) ([]*model.Connection, error)

	// Touch は最終アクティビティと最終メッセージ参照を更新する。
	Touch(ctx context.Context, id, lastMessageID string, at time.Time) error

	// UpdateEliteState はエリート化ハンドシェイクの進行状態を更新する。
	UpdateEliteState(ctx context.Context, id string, eliteReady []string, isElite bool, status model.ConnectionStatus) error

	// Delete は指定IDのコネクションを削除する。
	Delete(ctx context.Context, id string) error
}

// MessageRepository はチャットメッセージの永続化インターフェース。
// 実装はMongoDBのmessagesコレクションを使用する。
type MessageRepository interface {
	// Create はメッセージを作成する。
	Create(ctx context.Context, m *model.Message) error

	// ListByConnection はコネクションのメッセージ一覧を時刻昇順に返す。
	ListByConnection(ctx context.Context, connectionID string) ([]*model.Message, error)

	// DeleteByConnection はコネクションに紐づく全メッセージを削除し、件数を返す。
	DeleteByConnection(ctx context.Context, connectionID string) (int64, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
