// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleSimple は一般ユーザー。
	RoleSimple Role = "Simple"
	// RoleFreelancer はフリーランサー（コレクティブ結成権限を持つ）。
	RoleFreelancer Role = "Freelancer"
	// RoleBrand はブランド（ミッション依頼の発行元）。
	RoleBrand Role = "Brand"
	// RoleAdmin は管理者。サブスクリプション失効の自動一時停止が免除される。
	RoleAdmin Role = "Admin"
)

// UserStatus はユーザーの審査状態を表す。
type UserStatus string

const (
	// UserStatusPending は登録直後の審査待ち状態。
	UserStatusPending UserStatus = "Pending"
	// UserStatusActive は管理者承認済みの状態。
	UserStatusActive UserStatus = "Active"
	// UserStatusSuspended は停止された状態。
	UserStatusSuspended UserStatus = "Suspended"
)

// User はサービス利用ユーザーを表す。
// IsPausedはStatusとは独立したフラグで、サブスクリプション失効による
// 自動停止（ステイシス）を表す。役割は保持されたまま機能が凍結される。
type User struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	Role             Role
	Speciality       string
	CustomSpeciality string
	PortfolioURL     string
	IdentityImage    string
	BiometricImage   string
	IsVerified       bool
	Status           UserStatus
	IsPaused         bool
	IsPremium        bool
	AverageRating    float64
	AccessUntil      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsExpired はサブスクリプションが指定時刻時点で失効しているかを返す。
func (u *User) IsExpired(now time.Time) bool {
	return now.After(u.AccessUntil)
}

// Eligible はステイシス判定を満たす稼働可能状態かを返す。
// 検索やプレミアム機能のゲートで使用する条件と同一。
func (u *User) Eligible(now time.Time) bool {
	return u.Status == UserStatusActive && !u.IsPaused && !u.IsExpired(now)
}

// Actor は認証ゲートを通過したリクエスト主体を表す。
// 認証ミドルウェアがコンテキストに注入する。
type Actor struct {
	ID    string
	Email string
	Role  Role
}
