package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// ListMine は自分宛の通知一覧を取得する。
	ListMine(ctx context.Context, actor *model.Actor) ([]*model.Notification, error)
	// MarkRead は通知を既読にする。
	MarkRead(ctx context.Context, actor *model.Actor, notificationID string) error
}

// NotificationHandler は通知のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationResponse は通知のAPIレスポンス。
type notificationResponse struct {
	ID           string `json:"id"`
	SenderID     string `json:"sender_id,omitempty"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	CollectiveID string `json:"collective_id,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	ExternalLink string `json:"external_link,omitempty"`
	IsRead       bool   `json:"is_read"`
	CTAStatus    string `json:"cta_status"`
	CreatedAt    string `json:"created_at"`
}

func toNotificationResponse(n *model.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		SenderID:     n.SenderID,
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		CollectiveID: n.CollectiveID,
		RequestID:    n.RequestID,
		ExternalLink: n.ExternalLink,
		IsRead:       n.IsRead,
		CTAStatus:    string(n.CTAStatus),
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
	}
}

// ListMine は自分宛の通知一覧の取得を処理する。
// GET /api/notifications
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	notifications, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, responses)
}

// MarkRead は通知の既読化を処理する。
// POST /api/notifications/{notificationID}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.service.MarkRead(r.Context(), actor, notificationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
