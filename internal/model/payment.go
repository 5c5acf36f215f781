package model

import "time"

// PaymentPlan はD17レシートに対応するサブスクリプションプランを表す。
type PaymentPlan string

const (
	// PlanMonthly は月額プラン（30日延長）。
	PlanMonthly PaymentPlan = "Monthly"
	// PlanQuarterly は四半期プラン（90日延長）。
	PlanQuarterly PaymentPlan = "Quarterly"
)

// ExtensionDays はプランに対応するアクセス延長日数を返す。
func (p PaymentPlan) ExtensionDays() int {
	if p == PlanQuarterly {
		return 90
	}
	return 30
}

// PaymentStatus はレシート審査の状態を表す。
type PaymentStatus string

const (
	// PaymentPending は管理者の検証待ち状態。
	PaymentPending PaymentStatus = "Pending"
	// PaymentApproved は承認済み状態。
	PaymentApproved PaymentStatus = "Approved"
	// PaymentRejected は却下済み状態。
	PaymentRejected PaymentStatus = "Rejected"
)

// Payment はD17送金レシートの提出記録を表す。
// Screenshotはメディアホストに保存されたレシート画像のURL。
type Payment struct {
	ID         string
	UserID     string
	Screenshot string
	Plan       PaymentPlan
	Amount     float64
	Status     PaymentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
