package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create はプロジェクト投稿を作成する（検証待ち状態で保存される）。
	Create(ctx context.Context, actor *model.Actor, input post.CreateInput) (*model.Post, error)
	// Feed は検証済み投稿のフィードを取得する。
	Feed(ctx context.Context) ([]*model.Post, error)
}

// PostHandler はプロジェクト投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Domain       string `json:"domain"`
	GlobalVision string `json:"global_vision"`
	Description  string `json:"description"`
	Goal         string `json:"goal"`
	PostImage    string `json:"post_image"`
}

// postResponse はプロジェクト投稿のAPIレスポンス。
type postResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Domain       string `json:"domain"`
	GlobalVision string `json:"global_vision"`
	Description  string `json:"description"`
	Goal         string `json:"goal"`
	PostImage    string `json:"post_image"`
	IsVerified   bool   `json:"is_verified"`
	CreatedAt    string `json:"created_at"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Domain:       p.Domain,
		GlobalVision: p.GlobalVision,
		Description:  p.Description,
		Goal:         p.Goal,
		PostImage:    p.PostImage,
		IsVerified:   p.IsVerified,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

// Create は投稿作成を処理する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), actor, post.CreateInput{
		Domain:       req.Domain,
		GlobalVision: req.GlobalVision,
		Description:  req.Description,
		Goal:         req.Goal,
		PostImage:    req.PostImage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// Feed は検証済み投稿フィードの取得を処理する。
// GET /api/posts
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Feed(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}
