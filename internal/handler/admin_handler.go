package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/admin"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// AdminUserServiceInterface は管理者のユーザー審査操作。
type AdminUserServiceInterface interface {
	// ListPending は審査待ちユーザーの一覧を取得する。
	ListPending(ctx context.Context) ([]*model.User, error)
	// Approve は審査待ちユーザーを承認する。
	Approve(ctx context.Context, userID string) (*model.User, error)
	// Suspend はユーザーを停止する。
	Suspend(ctx context.Context, userID string) (*model.User, error)
}

// AdminCollectiveServiceInterface は管理者のコレクティブ操作。
type AdminCollectiveServiceInterface interface {
	// ListByStatus は指定状態のコレクティブ一覧を取得する。
	ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error)
	// Deploy は管理者承認待ちのコレクティブを展開する。
	Deploy(ctx context.Context, collectiveID string) (*model.Collective, error)
	// Delete はコレクティブを削除する。
	Delete(ctx context.Context, collectiveID string) error
}

// AdminPostServiceInterface は管理者の投稿検証操作。
type AdminPostServiceInterface interface {
	// PendingQueue は検証待ち投稿の一覧を取得する。
	PendingQueue(ctx context.Context) ([]*model.Post, error)
	// Verify は投稿を検証済みにする。
	Verify(ctx context.Context, postID string) error
	// Delete は投稿を削除する。
	Delete(ctx context.Context, postID string) error
}

// AdminVipServiceInterface は管理者のVIPインテル検証操作。
type AdminVipServiceInterface interface {
	// PendingQueue は検証待ち掲載の一覧を取得する。
	PendingQueue(ctx context.Context) ([]*model.VipPost, error)
	// Verify は掲載を検証済みにする。
	Verify(ctx context.Context, postID string) error
	// Delete は掲載を削除する。
	Delete(ctx context.Context, postID string) error
}

// AdminPaymentServiceInterface は管理者のレシート審査操作。
type AdminPaymentServiceInterface interface {
	// ListPending は審査待ちレシートの一覧を取得する。
	ListPending(ctx context.Context) ([]*model.Payment, error)
	// Approve はレシートを承認しアクセス期間を延長する。
	Approve(ctx context.Context, paymentID string) (*model.Payment, error)
	// Reject はレシートを却下する。
	Reject(ctx context.Context, paymentID string) (*model.Payment, error)
}

// AccessServiceInterface は管理者ホワイトリストの操作。
type AccessServiceInterface interface {
	// List はホワイトリストの一覧を取得する。
	List(ctx context.Context) ([]*model.Access, error)
	// Grant はメールアドレスに管理者権限を付与する。
	Grant(ctx context.Context, actor *model.Actor, email string) (*model.Access, error)
	// Revoke はメールアドレスの管理者権限を剥奪する。
	Revoke(ctx context.Context, email string) error
}

// AdminRoleRequestServiceInterface は管理者の役割申請審査操作。
type AdminRoleRequestServiceInterface interface {
	// ListPending は審査待ち申請の一覧を取得する。
	ListPending(ctx context.Context) ([]*model.RoleRequest, error)
	// Review は申請を承認または却下する。
	Review(ctx context.Context, requestID string, approve bool) (*model.RoleRequest, error)
}

// DashboardServiceInterface は管理者ダッシュボードの集計操作。
type DashboardServiceInterface interface {
	// Dashboard はダッシュボードの集計を返す。
	Dashboard(ctx context.Context) (*admin.Dashboard, error)
}

// AdminHandler は管理者操作のHTTPハンドラー。
// ルーター側で管理者ゲート（役割とホワイトリストの二重チェック）を通過した
// リクエストのみが到達する。
type AdminHandler struct {
	userService        AdminUserServiceInterface
	collectiveService  AdminCollectiveServiceInterface
	postService        AdminPostServiceInterface
	vipService         AdminVipServiceInterface
	paymentService     AdminPaymentServiceInterface
	accessService      AccessServiceInterface
	roleRequestService AdminRoleRequestServiceInterface
	dashboardService   DashboardServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	userService AdminUserServiceInterface,
	collectiveService AdminCollectiveServiceInterface,
	postService AdminPostServiceInterface,
	vipService AdminVipServiceInterface,
	paymentService AdminPaymentServiceInterface,
	accessService AccessServiceInterface,
	roleRequestService AdminRoleRequestServiceInterface,
	dashboardService DashboardServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		userService:        userService,
		collectiveService:  collectiveService,
		postService:        postService,
		vipService:         vipService,
		paymentService:     paymentService,
		accessService:      accessService,
		roleRequestService: roleRequestService,
		dashboardService:   dashboardService,
	}
}

// grantAccessRequest はホワイトリスト追加リクエストのボディ。
type grantAccessRequest struct {
	Email string `json:"email"`
}

// reviewRoleRequestBody は役割申請審査リクエストのボディ。
type reviewRoleRequestBody struct {
	Approve bool `json:"approve"`
}

// accessResponse はホワイトリストエントリのAPIレスポンス。
type accessResponse struct {
	Email     string `json:"email"`
	GrantedBy string `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

// monthlyCountResponse は月別登録件数のAPIレスポンス。
type monthlyCountResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// dashboardResponse はダッシュボード集計のAPIレスポンス。
type dashboardResponse struct {
	UsersByStatus        map[string]int         `json:"users_by_status"`
	UsersByRole          map[string]int         `json:"users_by_role"`
	UsersVerified        int                    `json:"users_verified"`
	UsersUnverified      int                    `json:"users_unverified"`
	MonthlyGrowth        []monthlyCountResponse `json:"monthly_growth"`
	VipPostsVerified     int                    `json:"vip_posts_verified"`
	VipPostsUnverified   int                    `json:"vip_posts_unverified"`
	CollectivesAwaiting  int                    `json:"collectives_awaiting"`
	CollectivesActive    int                    `json:"collectives_active"`
	CollectivesSuspended int                    `json:"collectives_suspended"`
	PendingPayments      int                    `json:"pending_payments"`
	PendingRoleRequests  int                    `json:"pending_role_requests"`
}

// Dashboard はダッシュボード集計の取得を処理する。
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboardService.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	byStatus := make(map[string]int, len(d.UsersByStatus))
	for status, count := range d.UsersByStatus {
		byStatus[string(status)] = count
	}
	byRole := make(map[string]int, len(d.UsersByRole))
	for role, count := range d.UsersByRole {
		byRole[string(role)] = count
	}
	growth := make([]monthlyCountResponse, 0, len(d.MonthlyGrowth))
	for _, mc := range d.MonthlyGrowth {
		growth = append(growth, monthlyCountResponse{
			Year:  mc.Year,
			Month: mc.Month,
			Count: mc.Count,
		})
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		UsersByStatus:        byStatus,
		UsersByRole:          byRole,
		UsersVerified:        d.UsersByVerified[true],
		UsersUnverified:      d.UsersByVerified[false],
		MonthlyGrowth:        growth,
		VipPostsVerified:     d.VipPostsByVerified[true],
		VipPostsUnverified:   d.VipPostsByVerified[false],
		CollectivesAwaiting:  d.CollectivesAwaiting,
		CollectivesActive:    d.CollectivesActive,
		CollectivesSuspended: d.CollectivesSuspended,
		PendingPayments:      d.PendingPayments,
		PendingRoleRequests:  d.PendingRoleRequests,
	})
}

// ListPendingUsers は審査待ちユーザー一覧の取得を処理する。
// GET /api/admin/users/pending
func (h *AdminHandler) ListPendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListPending(r.Context())
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

// ApproveUser はユーザー承認を処理する。
// POST /api/admin/users/{userID}/approve
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	u, err := h.userService.Approve(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// SuspendUser はユーザー停止を処理する。
// POST /api/admin/users/{userID}/suspend
func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	u, err := h.userService.Suspend(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// ListAwaitingCollectives は管理者承認待ちコレクティブ一覧の取得を処理する。
// GET /api/admin/collectives/awaiting
func (h *AdminHandler) ListAwaitingCollectives(w http.ResponseWriter, r *http.Request) {
	collectives, err := h.collectiveService.ListByStatus(r.Context(), model.CollectiveAwaitingAdmin)
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

// DeployCollective はコレクティブの展開を処理する。
// POST /api/admin/collectives/{collectiveID}/deploy
func (h *AdminHandler) DeployCollective(w http.ResponseWriter, r *http.Request) {
	collectiveID := chi.URLParam(r, "collectiveID")
	c, err := h.collectiveService.Deploy(r.Context(), collectiveID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollectiveResponse(c))
}

// DeleteCollective はコレクティブの削除を処理する。
// DELETE /api/admin/collectives/{collectiveID}
func (h *AdminHandler) DeleteCollective(w http.ResponseWriter, r *http.Request) {
	collectiveID := chi.URLParam(r, "collectiveID")
	if err := h.collectiveService.Delete(r.Context(), collectiveID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPendingPosts は検証待ち投稿一覧の取得を処理する。
// GET /api/admin/posts/pending
func (h *AdminHandler) ListPendingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.PendingQueue(r.Context())
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

// VerifyPost は投稿の検証を処理する。
// POST /api/admin/posts/{postID}/verify
func (h *AdminHandler) VerifyPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if err := h.postService.Verify(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePost は投稿の削除を処理する。
// DELETE /api/admin/posts/{postID}
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if err := h.postService.Delete(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPendingVipPosts は検証待ちインテル掲載一覧の取得を処理する。
// GET /api/admin/vip-posts/pending
func (h *AdminHandler) ListPendingVipPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.vipService.PendingQueue(r.Context())
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

// VerifyVipPost はインテル掲載の検証を処理する。
// POST /api/admin/vip-posts/{postID}/verify
func (h *AdminHandler) VerifyVipPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if err := h.vipService.Verify(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteVipPost はインテル掲載の削除を処理する。
// DELETE /api/admin/vip-posts/{postID}
func (h *AdminHandler) DeleteVipPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if err := h.vipService.Delete(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPendingPayments は審査待ちレシート一覧の取得を処理する。
// GET /api/admin/payments/pending
func (h *AdminHandler) ListPendingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}

// ApprovePayment はレシート承認を処理する。
// POST /api/admin/payments/{paymentID}/approve
func (h *AdminHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	p, err := h.paymentService.Approve(r.Context(), paymentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// RejectPayment はレシート却下を処理する。
// POST /api/admin/payments/{paymentID}/reject
func (h *AdminHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	p, err := h.paymentService.Reject(r.Context(), paymentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// ListAccess はホワイトリスト一覧の取得を処理する。
// GET /api/admin/access
func (h *AdminHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	entries, err := h.accessService.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]accessResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, accessResponse{
			Email:     e.Email,
			GrantedBy: e.GrantedBy,
			GrantedAt: e.GrantedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// GrantAccess はホワイトリストへの追加を処理する。
// POST /api/admin/access
func (h *AdminHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(w, r)
	if actor == nil {
		return
	}

	var req grantAccessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.accessService.Grant(r.Context(), actor, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accessResponse{
		Email:     entry.Email,
		GrantedBy: entry.GrantedBy,
		GrantedAt: entry.GrantedAt.Format(time.RFC3339),
	})
}

// RevokeAccess はホワイトリストからの削除を処理する。
// DELETE /api/admin/access/{email}
func (h *AdminHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.accessService.Revoke(r.Context(), email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPendingRoleRequests は審査待ち役割申請一覧の取得を処理する。
// GET /api/admin/role-requests/pending
func (h *AdminHandler) ListPendingRoleRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.roleRequestService.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]roleRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, toRoleRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, responses)
}

// ReviewRoleRequest は役割申請の審査を処理する。
// POST /api/admin/role-requests/{requestID}/review
func (h *AdminHandler) ReviewRoleRequest(w http.ResponseWriter, r *http.Request) {
	var body reviewRoleRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	requestID := chi.URLParam(r, "requestID")
	reviewed, err := h.roleRequestService.Review(r.Context(), requestID, body.Approve)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRoleRequestResponse(reviewed))
}
