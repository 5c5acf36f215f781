package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/vip"
)

// VipServiceInterface はVIPインテルハンドラーが必要とするサービスインターフェース。
type VipServiceInterface interface {
	// Create はVIPインテル掲載を作成する（検証待ち状態で保存される）。
	Create(ctx context.Context, actor *model.Actor, input vip.CreateInput) (*model.VipPost, error)
	// Feed は検証済み掲載のフィードを取得する。評価スナップショット降順。
	Feed(ctx context.Context) ([]*model.VipPost, error)
}

// VipHandler はVIPインテル掲載のHTTPハンドラー。
type VipHandler struct {
	service VipServiceInterface
}

// NewVipHandler はVipHandlerを生成する。
func NewVipHandler(service VipServiceInterface) *VipHandler {
	return &VipHandler{service: service}
}

// createVipPostRequest はインテル掲載作成リクエストのボディ。
type createVipPostRequest struct {
	GlobalService      string   `json:"global_service"`
	ServiceDescription string   `json:"service_description"`
	PortfolioLinks     []string `json:"portfolio_links"`
	BrandName          string   `json:"brand_name"`
	SearchingFor       string   `json:"searching_for"`
	BrandSocialLink    string   `json:"brand_social_link"`
	IntelImage         string   `json:"intel_image"`
	MediaType          string   `json:"media_type"`
}

// vipPostResponse はインテル掲載のAPIレスポンス。
type vipPostResponse struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	IntelType          string   `json:"intel_type"`
	Verified           bool     `json:"verified"`
	GlobalService      string   `json:"global_service,omitempty"`
	ServiceDescription string   `json:"service_description,omitempty"`
	PortfolioLinks     []string `json:"portfolio_links,omitempty"`
	BrandName          string   `json:"brand_name,omitempty"`
	SearchingFor       string   `json:"searching_for,omitempty"`
	BrandSocialLink    string   `json:"brand_social_link,omitempty"`
	IntelImage         string   `json:"intel_image"`
	MediaType          string   `json:"media_type"`
	RatingSnapshot     float64  `json:"rating_snapshot"`
	CreatedAt          string   `json:"created_at"`
}

func toVipPostResponse(p *model.VipPost) vipPostResponse {
	return vipPostResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		IntelType:          string(p.IntelType),
		Verified:           p.Verified,
		GlobalService:      p.GlobalService,
		ServiceDescription: p.ServiceDescription,
		PortfolioLinks:     p.PortfolioLinks,
		BrandName:          p.BrandName,
		SearchingFor:       p.SearchingFor,
		BrandSocialLink:    p.BrandSocialLink,
		IntelImage:         p.IntelImage,
		MediaType:          string(p.MediaType),
		RatingSnapshot:     p.RatingSnapshot,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
}

// Create はインテル掲載の作成を処理する。
// POST /api/vip-posts
func (h *VipHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req createVipPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), actor, vip.CreateInput{
		GlobalService:      req.GlobalService,
		ServiceDescription: req.ServiceDescription,
		PortfolioLinks:     req.PortfolioLinks,
		BrandName:          req.BrandName,
		SearchingFor:       req.SearchingFor,
		BrandSocialLink:    req.BrandSocialLink,
		IntelImage:         req.IntelImage,
		MediaType:          model.MediaType(req.MediaType),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVipPostResponse(created))
}

// Feed は検証済みインテルフィードの取得を処理する。
// GET /api/vip-posts
func (h *VipHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Feed(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]vipPostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, toVipPostResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}
