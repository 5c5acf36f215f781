package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PaymentServiceInterface は支払いハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	// Submit はD17レシートを提出する。
	Submit(ctx context.Context, actor *model.Actor, screenshot string, plan model.PaymentPlan, amount float64) (*model.Payment, error)
}

// PaymentHandler はD17レシート提出のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// submitPaymentRequest はレシート提出リクエストのボディ。
type submitPaymentRequest struct {
	Screenshot string  `json:"screenshot"`
	Plan       string  `json:"plan"`
	Amount     float64 `json:"amount"`
}

// paymentResponse は支払い記録のAPIレスポンス。
type paymentResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Screenshot string  `json:"screenshot"`
	Plan       string  `json:"plan"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Screenshot: p.Screenshot,
		Plan:       string(p.Plan),
		Amount:     p.Amount,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
}

// Submit はレシート提出を処理する。
// POST /api/payments
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req submitPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Submit(r.Context(), actor, req.Screenshot, model.PaymentPlan(req.Plan), req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(created))
}
