// Package payment はD17レシート検証とアクセス延長のドメインロジックを提供する。
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/security"
)

// receiptProbeTimeout はレシート画像URLの事前検証に使うHTTP確認のタイムアウト。
const receiptProbeTimeout = 10 * time.Second

// receiptProbeMaxSize はレシート画像の応答サイズ上限。
const receiptProbeMaxSize = int64(5 * 1024 * 1024)

// Service はレシート審査のサービス層。
// 提出、承認によるアクセス延長、却下を管理する。
type Service struct {
	paymentRepo      repository.PaymentRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	ssrfGuard        security.SSRFGuardService
	logger           *slog.Logger
	now              func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	ssrfGuard security.SSRFGuardService,
	logger *slog.Logger,
) *Service {
	return &Service{
		paymentRepo:      paymentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		ssrfGuard:        ssrfGuard,
		logger:           logger,
		now:              time.Now,
	}
}

// Submit はユーザーがD17送金レシートを提出する。
// レシート画像URLはSSRF検証を通過したもののみ受け付ける。
func (s *Service) Submit(ctx context.Context, actor *model.Actor, screenshot string, plan model.PaymentPlan, amount float64) (*model.Payment, error) {
	if screenshot == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "レシート画像は必須です。")
	}
	if plan != model.PlanMonthly && plan != model.PlanQuarterly {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "プランはMonthlyまたはQuarterlyを指定してください。")
	}
	if amount <= 0 {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequest, "金額は正の値を指定してください。")
	}
	if err := s.ssrfGuard.ValidateURL(screenshot); err != nil {
		return nil, model.NewValidationError(model.ErrCodeUnsafeURL, "レシート画像URLが安全ではありません。")
	}

	now := s.now()
	p := &model.Payment{
		ID:         uuid.NewString(),
		UserID:     actor.ID,
		Screenshot: screenshot,
		Plan:       plan,
		Amount:     amount,
		Status:     model.PaymentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("レシートの保存に失敗しました: %w", err)
	}
	return p, nil
}

// ListPending は検証待ちレシート一覧を返す。管理者用。
func (s *Service) ListPending(ctx context.Context) ([]*model.Payment, error) {
	payments, err := s.paymentRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("検証待ちレシート一覧の取得に失敗しました: %w", err)
	}
	return payments, nil
}

// Approve は管理者がレシートを承認し、提出者のアクセス期限を延長する。
// 延長の基準は現在時刻と現在の期限のうち遅い方で、そこからプラン日数を加算する。
// 同時に一時停止を解除しActive状態へ復帰させる。
// 条件付きUPDATEのため、別の管理者が先に処理したレシートは承認できない。
func (s *Service) Approve(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("レシートの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPaymentNotFoundError(paymentID)
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("提出者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(p.UserID)
	}

	updated, err := s.paymentRepo.UpdateStatusIf(ctx, paymentID, model.PaymentPending, model.PaymentApproved)
	if err != nil {
		return nil, fmt.Errorf("レシート状態の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewInvalidStateError("このレシートは既に処理済みです。")
	}

	// レシート画像が到達可能かの事前確認。失敗しても承認は成立させる
	s.probeReceipt(ctx, p.Screenshot)

	now := s.now()
	base := now
	if user.AccessUntil.After(now) {
		base = user.AccessUntil
	}
	until := base.AddDate(0, 0, p.Plan.ExtensionDays())

	if err := s.userRepo.ExtendAccess(ctx, p.UserID, until); err != nil {
		return nil, fmt.Errorf("アクセス期限の延長に失敗しました: %w", err)
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: p.UserID,
		SenderID:    p.UserID,
		Type:        model.NotifSystemAlert,
		Title:       "支払い承認",
		Message:     fmt.Sprintf("レシートが承認され、アクセス期限が%sまで延長されました。", until.Format("2006-01-02")),
		CTAStatus:   model.CTACompleted,
		CreatedAt:   now,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("承認通知の作成に失敗しました: %w", err)
	}

	return s.paymentRepo.FindByID(ctx, paymentID)
}

// Reject は管理者がレシートを却下する。アクセス期限は変更されない。
func (s *Service) Reject(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("レシートの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPaymentNotFoundError(paymentID)
	}

	updated, err := s.paymentRepo.UpdateStatusIf(ctx, paymentID, model.PaymentPending, model.PaymentRejected)
	if err != nil {
		return nil, fmt.Errorf("レシート状態の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewInvalidStateError("このレシートは既に処理済みです。")
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: p.UserID,
		SenderID:    p.UserID,
		Type:        model.NotifSystemAlert,
		Title:       "支払い却下",
		Message:     "レシートが却下されました。送金内容を確認のうえ再提出してください。",
		CTAStatus:   model.CTACompleted,
		CreatedAt:   s.now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("却下通知の作成に失敗しました: %w", err)
	}

	return s.paymentRepo.FindByID(ctx, paymentID)
}

// probeReceipt はレシート画像URLへSSRF防止クライアントでHEAD確認を行う。
// メディアホストの障害で承認業務を止めないため、失敗はログのみ。
func (s *Service) probeReceipt(ctx context.Context, screenshot string) {
	client := s.ssrfGuard.NewSafeClient(receiptProbeTimeout, receiptProbeMaxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, screenshot, nil)
	if err != nil {
		s.logger.Warn("レシート画像URLの確認リクエスト作成に失敗", "error", err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("レシート画像URLへの到達確認に失敗", "url", screenshot, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("レシート画像URLが異常ステータスを返却", "url", screenshot, "status", resp.StatusCode)
	}
}
