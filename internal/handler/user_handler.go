package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Profile はユーザーの公開プロフィールを取得する。
	Profile(ctx context.Context, userID string) (*model.User, error)
	// SearchOperatives は稼働可能なフリーランサーを検索する。
	SearchOperatives(ctx context.Context, query string) ([]*model.User, error)
}

// RoleRequestServiceInterface は役割申請ハンドラーが必要とするサービスインターフェース。
type RoleRequestServiceInterface interface {
	// Submit は役割アップグレード申請を提出する。
	Submit(ctx context.Context, actor *model.Actor, requestedRole model.Role, portfolioLink string) (*model.RoleRequest, error)
}

// UserHandler はユーザープロフィールと検索のHTTPハンドラー。
type UserHandler struct {
	service     UserServiceInterface
	roleService RoleRequestServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, roleService RoleRequestServiceInterface) *UserHandler {
	return &UserHandler{
		service:     service,
		roleService: roleService,
	}
}

// submitRoleRequestBody は役割申請リクエストのボディ。
type submitRoleRequestBody struct {
	RequestedRole string `json:"requested_role"`
	PortfolioLink string `json:"portfolio_link"`
}

// userResponse はユーザープロフィールのAPIレスポンス。
// 本人確認画像などの審査用フィールドは含めない。
type userResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Speciality    string  `json:"speciality,omitempty"`
	PortfolioURL  string  `json:"portfolio_url,omitempty"`
	IsVerified    bool    `json:"is_verified"`
	Status        string  `json:"status"`
	IsPremium     bool    `json:"is_premium"`
	AverageRating float64 `json:"average_rating"`
	CreatedAt     string  `json:"created_at"`
}

// roleRequestResponse は役割申請のAPIレスポンス。
type roleRequestResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	RequestedRole string `json:"requested_role"`
	PortfolioLink string `json:"portfolio_link"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Role:          string(u.Role),
		Speciality:    u.Speciality,
		PortfolioURL:  u.PortfolioURL,
		IsVerified:    u.IsVerified,
		Status:        string(u.Status),
		IsPremium:     u.IsPremium,
		AverageRating: u.AverageRating,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
}

func toRoleRequestResponse(req *model.RoleRequest) roleRequestResponse {
	return roleRequestResponse{
		ID:            req.ID,
		UserID:        req.UserID,
		RequestedRole: string(req.RequestedRole),
		PortfolioLink: req.PortfolioLink,
		Status:        string(req.Status),
		CreatedAt:     req.CreatedAt.Format(time.RFC3339),
	}
}

// Profile はプロフィール取得を処理する。
// GET /api/users/{userID}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	u, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// SearchOperatives はフリーランサー検索を処理する。
// GET /api/users/search?q=...
func (h *UserHandler) SearchOperatives(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	users, err := h.service.SearchOperatives(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// SubmitRoleRequest は役割アップグレード申請を処理する。
// POST /api/users/role-requests
func (h *UserHandler) SubmitRoleRequest(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var body submitRoleRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := h.roleService.Submit(r.Context(), actor, model.Role(body.RequestedRole), body.PortfolioLink)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoleRequestResponse(created))
}
