package model

import "time"

// Access は管理者ホワイトリストのエントリを表す。
// 管理者ゲートは認証済みユーザーのメールアドレスをこのリストと照合する。
type Access struct {
	Email     string
	GrantedBy string
	GrantedAt time.Time
}

// RoleRequestStatus は役割アップグレード申請の審査状態を表す。
type RoleRequestStatus string

const (
	// RoleRequestPending は審査待ち状態。
	RoleRequestPending RoleRequestStatus = "Pending"
	// RoleRequestApproved は承認済み状態。
	RoleRequestApproved RoleRequestStatus = "Approved"
	// RoleRequestRejected は却下済み状態。
	RoleRequestRejected RoleRequestStatus = "Rejected"
)

// RoleRequest は一般ユーザーからの役割アップグレード申請を表す。
type RoleRequest struct {
	ID            string
	UserID        string
	RequestedRole Role
	PortfolioLink string
	Status        RoleRequestStatus
	CreatedAt     time.Time
}
