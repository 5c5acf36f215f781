package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/metrics"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/middleware"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	JWTSecret         string
	UserRepo          repository.UserRepository
	WhitelistChecker  middleware.WhitelistChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector
	Gatherer          prometheus.Gatherer
	HealthChecker     HealthChecker

	// ユーザー
	UserService        UserServiceInterface
	RoleRequestService RoleRequestServiceInterface

	// コレクティブ
	CollectiveService CollectiveServiceInterface

	// ミッション依頼
	RequestService RequestServiceInterface

	// コネクション
	ConnectionService ConnectionServiceInterface

	// 投稿
	PostService PostServiceInterface
	VipService  VipServiceInterface

	// 支払い
	PaymentService PaymentServiceInterface

	// 通知
	NotificationService NotificationServiceInterface

	// 管理者
	AdminUserService        AdminUserServiceInterface
	AdminCollectiveService  AdminCollectiveServiceInterface
	AdminPostService        AdminPostServiceInterface
	AdminVipService         AdminVipServiceInterface
	AdminPaymentService     AdminPaymentServiceInterface
	AccessService           AccessServiceInterface
	AdminRoleRequestService AdminRoleRequestServiceInterface
	DashboardService        DashboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Auth → RateLimit(General)
//
// /health と /metrics は認証チェーンの外に配置する。
// /api/admin/* は管理者ゲート（役割＋ホワイトリストの二重チェック）を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	userHandler := NewUserHandler(deps.UserService, deps.RoleRequestService)
	collectiveHandler := NewCollectiveHandler(deps.CollectiveService)
	requestHandler := NewRequestHandler(deps.RequestService)
	connectionHandler := NewConnectionHandler(deps.ConnectionService)
	postHandler := NewPostHandler(deps.PostService)
	vipHandler := NewVipHandler(deps.VipService)
	paymentHandler := NewPaymentHandler(deps.PaymentService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	adminHandler := NewAdminHandler(
		deps.AdminUserService,
		deps.AdminCollectiveService,
		deps.AdminPostService,
		deps.AdminVipService,
		deps.AdminPaymentService,
		deps.AccessService,
		deps.AdminRoleRequestService,
		deps.DashboardService,
	)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.JWTSecret, deps.UserRepo))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ステイシスゲート: 一時停止または失効ユーザーのプレミアム操作を遮断する
		stasisGate := middleware.NewStasisGateMiddleware(deps.UserRepo)

		// ユーザー
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/search", userHandler.SearchOperatives)
			r.Get("/{userID}", userHandler.Profile)

			// POST /api/users/role-requests - 役割アップグレード申請（作成専用レート制限を追加）
			r.With(deps.RateLimiter.CreationMiddleware()).Post("/role-requests", userHandler.SubmitRoleRequest)
		})

		// コレクティブ
		r.Route("/api/collectives", func(r chi.Router) {
			r.Get("/", collectiveHandler.ListActive)

			// POST /api/collectives - 結成（ステイシスゲート＋作成専用レート制限）
			r.With(stasisGate, deps.RateLimiter.CreationMiddleware()).Post("/", collectiveHandler.Initiate)

			r.Route("/{collectiveID}", func(r chi.Router) {
				r.Get("/", collectiveHandler.Get)
				r.Post("/respond", collectiveHandler.RespondInvitation)
			})
		})

		// ミッション依頼
		r.Route("/api/requests", func(r chi.Router) {
			r.Get("/incoming", requestHandler.ListIncoming)

			// POST /api/requests - 依頼送信（ステイシスゲート＋作成専用レート制限）
			r.With(stasisGate, deps.RateLimiter.CreationMiddleware()).Post("/", requestHandler.Initiate)

			r.Post("/{requestID}/respond", requestHandler.Respond)
		})

		// コネクション
		r.Route("/api/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.ListMine)

			r.Route("/{connectionID}", func(r chi.Router) {
				r.Get("/messages", connectionHandler.History)

				// POST messages - メッセージ送信（ステイシスゲート）
				r.With(stasisGate).Post("/messages", connectionHandler.Send)

				r.Post("/elite", connectionHandler.MarkEliteReady)
				r.Delete("/", connectionHandler.Terminate)
			})
		})

		// プロジェクト投稿
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.Feed)
			r.With(deps.RateLimiter.CreationMiddleware()).Post("/", postHandler.Create)
		})

		// VIPインテル掲載
		r.Route("/api/vip-posts", func(r chi.Router) {
			r.Get("/", vipHandler.Feed)

			// POST /api/vip-posts - 掲載作成（ステイシスゲート＋作成専用レート制限）
			r.With(stasisGate, deps.RateLimiter.CreationMiddleware()).Post("/", vipHandler.Create)
		})

		// 支払い
		// ステイシスゲートは適用しない（停止中ユーザーがレシートを提出して復帰する経路）
		r.With(deps.RateLimiter.CreationMiddleware()).Post("/api/payments", paymentHandler.Submit)

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListMine)
			r.Post("/{notificationID}/read", notificationHandler.MarkRead)
		})

		// --- 管理者ルート ---
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewAdminMiddleware(deps.WhitelistChecker))

			r.Get("/dashboard", adminHandler.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/pending", adminHandler.ListPendingUsers)
				r.Post("/{userID}/approve", adminHandler.ApproveUser)
				r.Post("/{userID}/suspend", adminHandler.SuspendUser)
			})

			r.Route("/collectives", func(r chi.Router) {
				r.Get("/awaiting", adminHandler.ListAwaitingCollectives)
				r.Post("/{collectiveID}/deploy", adminHandler.DeployCollective)
				r.Delete("/{collectiveID}", adminHandler.DeleteCollective)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/pending", adminHandler.ListPendingPosts)
				r.Post("/{postID}/verify", adminHandler.VerifyPost)
				r.Delete("/{postID}", adminHandler.DeletePost)
			})

			r.Route("/vip-posts", func(r chi.Router) {
				r.Get("/pending", adminHandler.ListPendingVipPosts)
				r.Post("/{postID}/verify", adminHandler.VerifyVipPost)
				r.Delete("/{postID}", adminHandler.DeleteVipPost)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/pending", adminHandler.ListPendingPayments)
				r.Post("/{paymentID}/approve", adminHandler.ApprovePayment)
				r.Post("/{paymentID}/reject", adminHandler.RejectPayment)
			})

			r.Route("/access", func(r chi.Router) {
				r.Get("/", adminHandler.ListAccess)
				r.Post("/", adminHandler.GrantAccess)
				r.Delete("/{email}", adminHandler.RevokeAccess)
			})

			r.Route("/role-requests", func(r chi.Router) {
				r.Get("/pending", adminHandler.ListPendingRoleRequests)
				r.Post("/{requestID}/review", adminHandler.ReviewRoleRequest)
			})
		})
	})

	return r
}
