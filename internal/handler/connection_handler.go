package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// ConnectionServiceInterface はコネクションハンドラーが必要とするサービスインターフェース。
type ConnectionServiceInterface interface {
	// ListMine は自分が参加するコネクションの一覧を取得する。
	ListMine(ctx context.Context, actor *model.Actor) ([]*model.Connection, error)
	// History はコネクションのメッセージ履歴を取得する。
	History(ctx context.Context, actor *model.Actor, connectionID string) ([]*model.Message, error)
	// Send はメッセージを送信する。
	Send(ctx context.Context, actor *model.Actor, connectionID, content, fileURL string) (*model.Message, error)
	// MarkEliteReady はエリート化への同意を記録する。
	MarkEliteReady(ctx context.Context, actor *model.Actor, connectionID string) (*model.Connection, error)
	// Terminate はコネクションをメッセージごと終了する。
	Terminate(ctx context.Context, actor *model.Actor, connectionID string) error
}

// ConnectionHandler はチャットコネクションのHTTPハンドラー。
type ConnectionHandler struct {
	service ConnectionServiceInterface
}

// NewConnectionHandler はConnectionHandlerを生成する。
func NewConnectionHandler(service ConnectionServiceInterface) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// sendMessageRequest はメッセージ送信リクエストのボディ。
type sendMessageRequest struct {
	Content string `json:"content"`
	FileURL string `json:"file_url"`
}

// connectionResponse はコネクション情報のAPIレスポンス。
type connectionResponse struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	RequestID    string   `json:"request_id,omitempty"`
	ChatRoomID   string   `json:"chat_room_id"`
	Status       string   `json:"status"`
	EliteReady   []string `json:"elite_ready,omitempty"`
	IsElite      bool     `json:"is_elite"`
	LastActivity string   `json:"last_activity"`
	LastMessage  string   `json:"last_message,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// messageResponse はチャットメッセージのAPIレスポンス。
type messageResponse struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connection_id"`
	SenderID     string `json:"sender_id"`
	Content      string `json:"content"`
	FileURL      string `json:"file_url,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toConnectionResponse(c *model.Connection) connectionResponse {
	return connectionResponse{
		ID:           c.ID,
		Participants: c.Participants,
		RequestID:    c.RequestID,
		ChatRoomID:   c.ChatRoomID,
		Status:       string(c.Status),
		EliteReady:   c.EliteReady,
		IsElite:      c.IsElite,
		LastActivity: c.LastActivity.Format(time.RFC3339),
		LastMessage:  c.LastMessage,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func toMessageResponse(m *model.Message) messageResponse {
	return messageResponse{
		ID:           m.ID,
		ConnectionID: m.ConnectionID,
		SenderID:     m.SenderID,
		Content:      m.Content,
		FileURL:      m.FileURL,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
}

// ListMine は自分のコネクション一覧の取得を処理する。
// GET /api/connections
func (h *ConnectionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	connections, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]connectionResponse, 0, len(connections))
	for _, c := range connections {
		responses = append(responses, toConnectionResponse(c))
	}
	writeJSON(w, http.StatusOK, responses)
}

// History はメッセージ履歴の取得を処理する。
// GET /api/connections/{connectionID}/messages
func (h *ConnectionHandler) History(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	connectionID := chi.URLParam(r, "connectionID")
	messages, err := h.service.History(r.Context(), actor, connectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Send はメッセージ送信を処理する。
// POST /api/connections/{connectionID}/messages
func (h *ConnectionHandler) Send(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	connectionID := chi.URLParam(r, "connectionID")
	msg, err := h.service.Send(r.Context(), actor, connectionID, req.Content, req.FileURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// MarkEliteReady はエリート化同意の記録を処理する。
// POST /api/connections/{connectionID}/elite
func (h *ConnectionHandler) MarkEliteReady(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	connectionID := chi.URLParam(r, "connectionID")
	conn, err := h.service.MarkEliteReady(r.Context(), actor, connectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConnectionResponse(conn))
}

// Terminate はコネクション終了を処理する。
// DELETE /api/connections/{connectionID}
func (h *ConnectionHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	connectionID := chi.URLParam(r, "connectionID")
	if err := h.service.Terminate(r.Context(), actor, connectionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
