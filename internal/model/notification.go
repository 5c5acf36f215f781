package model

import "time"

// NotificationType は通知シグナルの種別を表す。
type NotificationType string

const (
	// NotifCollectiveInvite はコレクティブ招待通知。
	NotifCollectiveInvite NotificationType = "COLLECTIVE_INVITE"
	// NotifMissionRequest はミッション依頼通知。
	NotifMissionRequest NotificationType = "MISSION_REQUEST"
	// NotifSystemAlert はシステム通知。
	NotifSystemAlert NotificationType = "SYSTEM_ALERT"
	// NotifChat はチャット通知。
	NotifChat NotificationType = "CHAT_NOTIF"
)

// CTAStatus は通知のコールトゥアクション処理状態を表す。
type CTAStatus string

const (
	// CTAPending は未応答状態。
	CTAPending CTAStatus = "Pending"
	// CTACompleted は応答済み状態。
	CTACompleted CTAStatus = "Completed"
	// CTAIgnored は無視された状態。
	CTAIgnored CTAStatus = "Ignored"
)

// Notification はユーザーへの通知シグナルを表す。
// メタデータは深いコピーを避け、関連エンティティをIDで参照する。
// 作成から7日経過したものは日次スイープで削除される。
type Notification struct {
	ID           string
	RecipientID  string
	SenderID     string
	Type         NotificationType
	Title        string
	Message      string
	CollectiveID string // 関連コレクティブID（任意）
	RequestID    string // 関連ミッション依頼ID（任意）
	ExternalLink string
	IsRead       bool
	CTAStatus    CTAStatus
	CreatedAt    time.Time
}
