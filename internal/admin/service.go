// Package admin は管理者ダッシュボードの集計ロジックを提供する。
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// growthWindowMonths はダッシュボードの登録推移グラフの対象期間（月数）。
const growthWindowMonths = 6

// Dashboard は管理者ダッシュボードの集計結果。
type Dashboard struct {
	UsersByStatus        map[model.UserStatus]int
	UsersByRole          map[model.Role]int
	UsersByVerified      map[bool]int
	MonthlyGrowth        []repository.MonthlyCount
	VipPostsByVerified   map[bool]int
	CollectivesAwaiting  int
	CollectivesActive    int
	CollectivesSuspended int
	PendingPayments      int
	PendingRoleRequests  int
}

// Service は管理者ダッシュボードのサービス層。
type Service struct {
	userRepo        repository.UserRepository
	collectiveRepo  repository.CollectiveRepository
	vipPostRepo     repository.VipPostRepository
	paymentRepo     repository.PaymentRepository
	roleRequestRepo repository.RoleRequestRepository
	now             func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	collectiveRepo repository.CollectiveRepository,
	vipPostRepo repository.VipPostRepository,
	paymentRepo repository.PaymentRepository,
	roleRequestRepo repository.RoleRequestRepository,
) *Service {
	return &Service{
		userRepo:        userRepo,
		collectiveRepo:  collectiveRepo,
		vipPostRepo:     vipPostRepo,
		paymentRepo:     paymentRepo,
		roleRequestRepo: roleRequestRepo,
		now:             time.Now,
	}
}

// Dashboard はダッシュボードの集計を返す。
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	growthSince := s.now().AddDate(0, -growthWindowMonths, 0)
	stats, err := s.userRepo.Stats(ctx, growthSince)
	if err != nil {
		return nil, fmt.Errorf("ユーザー集計の取得に失敗しました: %w", err)
	}

	vipCounts, err := s.vipPostRepo.CountByVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("インテル掲載集計の取得に失敗しました: %w", err)
	}

	awaiting, err := s.collectiveRepo.ListByStatus(ctx, model.CollectiveAwaitingAdmin)
	if err != nil {
		return nil, fmt.Errorf("承認待ちコレクティブの取得に失敗しました: %w", err)
	}
	active, err := s.collectiveRepo.ListByStatus(ctx, model.CollectiveActive)
	if err != nil {
		return nil, fmt.Errorf("稼働中コレクティブの取得に失敗しました: %w", err)
	}
	suspended, err := s.collectiveRepo.ListByStatus(ctx, model.CollectiveSuspended)
	if err != nil {
		return nil, fmt.Errorf("停止中コレクティブの取得に失敗しました: %w", err)
	}

	payments, err := s.paymentRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("検証待ちレシートの取得に失敗しました: %w", err)
	}

	roleRequests, err := s.roleRequestRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("審査待ち役割申請の取得に失敗しました: %w", err)
	}

	return &Dashboard{
		UsersByStatus:        stats.ByStatus,
		UsersByRole:          stats.ByRole,
		UsersByVerified:      stats.ByVerified,
		MonthlyGrowth:        stats.Growth,
		VipPostsByVerified:   vipCounts,
		CollectivesAwaiting:  len(awaiting),
		CollectivesActive:    len(active),
		CollectivesSuspended: len(suspended),
		PendingPayments:      len(payments),
		PendingRoleRequests:  len(roleRequests),
	}, nil
}
