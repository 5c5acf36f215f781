package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/request"
)

// RequestServiceInterface はミッション依頼ハンドラーが必要とするサービスインターフェース。
type RequestServiceInterface interface {
	// Initiate はミッション依頼を送信する。
	Initiate(ctx context.Context, actor *model.Actor, input request.InitiateInput) (*model.Request, error)
	// ListIncoming は受信した依頼の一覧を取得する。
	ListIncoming(ctx context.Context, actor *model.Actor) ([]*model.Request, error)
	// Respond は依頼への応答を処理する。承諾時はコネクションを返す。
	Respond(ctx context.Context, actor *model.Actor, requestID string, accept bool) (*model.Connection, error)
}

// RequestHandler はミッション依頼のHTTPハンドラー。
type RequestHandler struct {
	service RequestServiceInterface
}

// NewRequestHandler はRequestHandlerを生成する。
func NewRequestHandler(service RequestServiceInterface) *RequestHandler {
	return &RequestHandler{service: service}
}

// initiateRequestBody はミッション依頼送信リクエストのボディ。
type initiateRequestBody struct {
	ReceiverID     string `json:"receiver_id"`
	RelatedPostID  string `json:"related_post_id"`
	MissionGoal    string `json:"mission_goal"`
	MissionDetails string `json:"mission_details"`
}

// respondRequestBody は依頼応答リクエストのボディ。
type respondRequestBody struct {
	Accept bool `json:"accept"`
}

// missionRequestResponse はミッション依頼のAPIレスポンス。
type missionRequestResponse struct {
	ID             string `json:"id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	RelatedPostID  string `json:"related_post_id"`
	MissionGoal    string `json:"mission_goal"`
	MissionDetails string `json:"mission_details"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func toMissionRequestResponse(req *model.Request) missionRequestResponse {
	return missionRequestResponse{
		ID:             req.ID,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		RelatedPostID:  req.RelatedPostID,
		MissionGoal:    req.MissionGoal,
		MissionDetails: req.MissionDetails,
		Status:         string(req.Status),
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
	}
}

// Initiate はミッション依頼の送信を処理する。
// POST /api/requests
func (h *RequestHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var body initiateRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := h.service.Initiate(r.Context(), actor, request.InitiateInput{
		ReceiverID:     body.ReceiverID,
		RelatedPostID:  body.RelatedPostID,
		MissionGoal:    body.MissionGoal,
		MissionDetails: body.MissionDetails,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMissionRequestResponse(created))
}

// ListIncoming は受信依頼一覧の取得を処理する。
// GET /api/requests/incoming
func (h *RequestHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	requests, err := h.service.ListIncoming(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]missionRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, toMissionRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Respond は依頼への応答を処理する。
// POST /api/requests/{requestID}/respond
func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var body respondRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	requestID := chi.URLParam(r, "requestID")
	conn, err := h.service.Respond(r.Context(), actor, requestID, body.Accept)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 拒否時はコネクションが生成されない
	if conn == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}
	writeJSON(w, http.StatusCreated, toConnectionResponse(conn))
}
