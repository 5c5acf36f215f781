package model

import "time"

// RequestStatus はミッション依頼のハンドシェイク状態を表す。
type RequestStatus string

const (
	// RequestPending は受信者の応答待ち状態。
	RequestPending RequestStatus = "pending"
	// RequestAccepted は承諾済み状態（コネクション生成後にレコードは削除される）。
	RequestAccepted RequestStatus = "accepted"
	// RequestRejected は拒否済み状態（レコードは削除される）。
	RequestRejected RequestStatus = "rejected"
)

// Request はブランドからフリーランサーへのミッション依頼を表す。
// 双方が承諾するとコネクションが生成され、依頼レコード自体は破棄される。
type Request struct {
	ID             string
	SenderID       string
	ReceiverID     string
	RelatedPostID  string
	MissionGoal    string
	MissionDetails string
	SenderAccept   bool
	ReceiverAccept bool
	Status         RequestStatus
	CreatedAt      time.Time
}
