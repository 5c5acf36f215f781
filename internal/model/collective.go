package model

import "time"

// CollectiveStatus はコレクティブの展開ライフサイクル状態を表す。
// Assembling → Awaiting Admin → Active の前進遷移と、
// スイーパーによる是正遷移 Active → Suspended のみが存在する。
type CollectiveStatus string

const (
	// CollectiveAssembling はメンバー募集中の初期状態。
	CollectiveAssembling CollectiveStatus = "Assembling"
	// CollectiveAwaitingAdmin は全メンバー承諾後、管理者承認待ちの状態。
	CollectiveAwaitingAdmin CollectiveStatus = "Awaiting Admin"
	// CollectiveActive は管理者が展開した稼働状態。
	CollectiveActive CollectiveStatus = "Active"
	// CollectiveSuspended はメンバーの資格失効により停止された状態。
	// 自動復帰の経路は存在しない（管理者の手動削除のみ）。
	CollectiveSuspended CollectiveStatus = "Suspended"
)

// MemberStatus はコレクティブメンバーの招待応答状態を表す。
type MemberStatus string

const (
	// MemberPending は招待への未応答状態。
	MemberPending MemberStatus = "Pending"
	// MemberAccepted は招待承諾済みの状態。
	MemberAccepted MemberStatus = "Accepted"
	// MemberDeclined は招待辞退済みの状態。
	MemberDeclined MemberStatus = "Declined"
)

// CollectiveMember はコレクティブのメンバーエントリを表す。
// コレクティブに専属所有され、独立したライフサイクルを持たない。
type CollectiveMember struct {
	UserID   string
	Status   MemberStatus
	JoinedAt time.Time
}

// CollectiveService はコレクティブが提供するサービス項目を表す。
// 1コレクティブにつき最大5件。
type CollectiveService struct {
	Title       string
	Description string
}

// MaxCollectiveServices はコレクティブのサービス項目数上限。
const MaxCollectiveServices = 5

// Collective は複数メンバーから成るシンジケートエンティティを表す。
type Collective struct {
	ID             string
	Name           string
	Logo           string
	Slogan         string
	Description    string
	HeroBackground string
	OwnerID        string
	Members        []CollectiveMember
	Services       []CollectiveService
	PortfolioLinks []string
	Rating         float64
	Status         CollectiveStatus
	IsDeployed     bool
	DeployedAt     *time.Time
	CreatedAt      time.Time
}

// AllMembersAccepted は全メンバーエントリがAcceptedかを返す。
// メンバーが存在しない場合はfalse（空のコレクティブは作成時点で拒否される）。
func (c *Collective) AllMembersAccepted() bool {
	if len(c.Members) == 0 {
		return false
	}
	for _, m := range c.Members {
		if m.Status != MemberAccepted {
			return false
		}
	}
	return true
}
