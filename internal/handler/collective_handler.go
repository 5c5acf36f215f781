package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/collective"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// CollectiveServiceInterface はコレクティブハンドラーが必要とするサービスインターフェース。
type CollectiveServiceInterface interface {
	// Initiate はコレクティブを結成し、招待通知を送信する。
	Initiate(ctx context.Context, actor *model.Actor, input collective.InitiateInput) (*model.Collective, error)
	// AcceptInvitation は招待への応答（承諾または辞退）を処理する。
	AcceptInvitation(ctx context.Context, actor *model.Actor, collectiveID string, accept bool) (*model.Collective, error)
	// Get はコレクティブ情報を取得する。
	Get(ctx context.Context, collectiveID string) (*model.Collective, error)
	// ListByStatus は指定状態のコレクティブ一覧を取得する。
	ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error)
}

// CollectiveHandler はコレクティブ管理のHTTPハンドラー。
type CollectiveHandler struct {
	service CollectiveServiceInterface
}

// NewCollectiveHandler はCollectiveHandlerを生成する。
func NewCollectiveHandler(service CollectiveServiceInterface) *CollectiveHandler {
	return &CollectiveHandler{service: service}
}

// initiateCollectiveRequest はコレクティブ結成リクエストのボディ。
type initiateCollectiveRequest struct {
	Name           string                  `json:"name"`
	Logo           string                  `json:"logo"`
	Slogan         string                  `json:"slogan"`
	Description    string                  `json:"description"`
	HeroBackground string                  `json:"hero_background"`
	MemberIDs      []string                `json:"member_ids"`
	Services       []collectiveServiceBody `json:"services"`
	PortfolioLinks []string                `json:"portfolio_links"`
}

// collectiveServiceBody はサービス項目のリクエスト/レスポンス表現。
type collectiveServiceBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// respondInvitationRequest は招待応答リクエストのボディ。
type respondInvitationRequest struct {
	Accept bool `json:"accept"`
}

// collectiveMemberResponse はメンバーエントリのAPIレスポンス。
type collectiveMemberResponse struct {
	UserID   string `json:"user_id"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

// collectiveResponse はコレクティブ情報のAPIレスポンス。
type collectiveResponse struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Logo           string                     `json:"logo"`
	Slogan         string                     `json:"slogan"`
	Description    string                     `json:"description"`
	HeroBackground string                     `json:"hero_background"`
	OwnerID        string                     `json:"owner_id"`
	Members        []collectiveMemberResponse `json:"members"`
	Services       []collectiveServiceBody    `json:"services"`
	PortfolioLinks []string                   `json:"portfolio_links"`
	Rating         float64                    `json:"rating"`
	Status         string                     `json:"status"`
	IsDeployed     bool                       `json:"is_deployed"`
	DeployedAt     *string                    `json:"deployed_at,omitempty"`
	CreatedAt      string                     `json:"created_at"`
}

func toCollectiveResponse(c *model.Collective) collectiveResponse {
	members := make([]collectiveMemberResponse, 0, len(c.Members))
	for _, m := range c.Members {
		members = append(members, collectiveMemberResponse{
			UserID:   m.UserID,
			Status:   string(m.Status),
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		})
	}
	services := make([]collectiveServiceBody, 0, len(c.Services))
	for _, sv := range c.Services {
		services = append(services, collectiveServiceBody{
			Title:       sv.Title,
			Description: sv.Description,
		})
	}
	resp := collectiveResponse{
		ID:             c.ID,
		Name:           c.Name,
		Logo:           c.Logo,
		Slogan:         c.Slogan,
		Description:    c.Description,
		HeroBackground: c.HeroBackground,
		OwnerID:        c.OwnerID,
		Members:        members,
		Services:       services,
		PortfolioLinks: c.PortfolioLinks,
		Rating:         c.Rating,
		Status:         string(c.Status),
		IsDeployed:     c.IsDeployed,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.DeployedAt != nil {
		deployedAt := c.DeployedAt.Format(time.RFC3339)
		resp.DeployedAt = &deployedAt
	}
	return resp
}

// Initiate はコレクティブ結成を処理する。
// POST /api/collectives
func (h *CollectiveHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req initiateCollectiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	services := make([]model.CollectiveService, 0, len(req.Services))
	for _, sv := range req.Services {
		services = append(services, model.CollectiveService{
			Title:       sv.Title,
			Description: sv.Description,
		})
	}

	created, err := h.service.Initiate(r.Context(), actor, collective.InitiateInput{
		Name:           req.Name,
		Logo:           req.Logo,
		Slogan:         req.Slogan,
		Description:    req.Description,
		HeroBackground: req.HeroBackground,
		MemberIDs:      req.MemberIDs,
		Services:       services,
		PortfolioLinks: req.PortfolioLinks,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCollectiveResponse(created))
}

// RespondInvitation は招待への応答を処理する。
// POST /api/collectives/{collectiveID}/respond
func (h *CollectiveHandler) RespondInvitation(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req respondInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	collectiveID := chi.URLParam(r, "collectiveID")
	updated, err := h.service.AcceptInvitation(r.Context(), actor, collectiveID, req.Accept)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollectiveResponse(updated))
}

// Get はコレクティブ情報の取得を処理する。
// GET /api/collectives/{collectiveID}
func (h *CollectiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	collectiveID := chi.URLParam(r, "collectiveID")
	c, err := h.service.Get(r.Context(), collectiveID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollectiveResponse(c))
}

// ListActive は稼働中コレクティブの一覧を処理する。
// GET /api/collectives
func (h *CollectiveHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	collectives, err := h.service.ListByStatus(r.Context(), model.CollectiveActive)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]collectiveResponse, 0, len(collectives))
	for _, c := range collectives {
		responses = append(responses, toCollectiveResponse(c))
	}
	writeJSON(w, http.StatusOK, responses)
}
