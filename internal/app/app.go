// Package app はアプリケーションの起動とワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/access"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/admin"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/collective"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/config"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/connection"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/database"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/handler"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/logger"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/metrics"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/middleware"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/notification"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/payment"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/post"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/request"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/rolerequest"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/security"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/user"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/vip"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/worker/sweep"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// PostgreSQLとMongoDBの接続を開き、全依存関係をワイヤリングし、
// HTTPサーバーを起動する。SIGINTまたはSIGTERMシグナルを受信すると
// グレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	mongoClient, err := database.OpenMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to open mongodb: %w", err)
	}
	defer mongoClient.Disconnect(ctx)

	slog.Info("database connections established")

	// 2. リポジトリの初期化
	mongoDB := mongoClient.Database(cfg.MongoDBName)

	userRepo := repository.NewPostgresUserRepo(db)
	collectiveRepo := repository.NewPostgresCollectiveRepo(db)
	requestRepo := repository.NewPostgresRequestRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	vipPostRepo := repository.NewPostgresVipPostRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	accessRepo := repository.NewPostgresAccessRepo(db)
	roleRequestRepo := repository.NewPostgresRoleRequestRepo(db)
	connectionRepo := repository.NewMongoConnectionRepo(mongoDB.Collection(database.ConnectionsCollection))
	messageRepo := repository.NewMongoMessageRepo(mongoDB.Collection(database.MessagesCollection))

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	userService := user.NewService(userRepo)
	collectiveService := collective.NewService(collectiveRepo, userRepo, notificationRepo, slog.Default())
	requestService := request.NewService(requestRepo, userRepo, postRepo, connectionRepo, notificationRepo, slog.Default())
	connectionService := connection.NewService(connectionRepo, messageRepo, notificationRepo, sanitizer)
	postService := post.NewService(postRepo, sanitizer)
	vipService := vip.NewService(vipPostRepo, userRepo, ssrfGuard, sanitizer)
	paymentService := payment.NewService(paymentRepo, userRepo, notificationRepo, ssrfGuard, slog.Default())
	notificationService := notification.NewService(notificationRepo)
	accessService := access.NewService(accessRepo, userRepo, cfg.SystemMasterEmail)
	roleRequestService := rolerequest.NewService(roleRequestRepo, userRepo, notificationRepo, ssrfGuard)
	adminService := admin.NewService(userRepo, collectiveRepo, vipPostRepo, paymentRepo, roleRequestRepo)

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		JWTSecret:         cfg.JWTSecret,
		UserRepo:          userRepo,
		WhitelistChecker:  accessService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterConfig(cfg)),
		Logger:            slog.Default(),
		Collector:         collector,
		Gatherer:          registry,
		HealthChecker:     db,

		UserService:        userService,
		RoleRequestService: roleRequestService,

		CollectiveService: collectiveService,
		RequestService:    requestService,
		ConnectionService: connectionService,

		PostService:    postService,
		VipService:     vipService,
		PaymentService: paymentService,

		NotificationService: notificationService,

		AdminUserService:        userService,
		AdminCollectiveService:  collectiveService,
		AdminPostService:        postService,
		AdminVipService:         vipService,
		AdminPaymentService:     paymentService,
		AccessService:           accessService,
		AdminRoleRequestService: roleRequestService,
		DashboardService:        adminService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はライフサイクルスイーパーモードで起動する。
// アイドルコネクションのパージと日次監査（失効ユーザーの一時停止、
// コレクティブの停止、古い通知の削除）を実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	mongoClient, err := database.OpenMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to open mongodb: %w", err)
	}
	defer mongoClient.Disconnect(ctx)

	slog.Info("database connections established (worker)")

	// 2. リポジトリの初期化
	mongoDB := mongoClient.Database(cfg.MongoDBName)

	userRepo := repository.NewPostgresUserRepo(db)
	collectiveRepo := repository.NewPostgresCollectiveRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	connectionRepo := repository.NewMongoConnectionRepo(mongoDB.Collection(database.ConnectionsCollection))
	messageRepo := repository.NewMongoMessageRepo(mongoDB.Collection(database.MessagesCollection))

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 分散ロックの初期化
	// Redisが未設定の場合は単一プロセス前提のNoopロックで動作する
	var locker sweep.Locker = sweep.NoopLocker{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = sweep.NewRedisLocker(redisClient)
		slog.Info("redis lock enabled for audit sweep")
	}

	// 5. スイープジョブの初期化
	purgeJob := sweep.NewPurgeJob(connectionRepo, messageRepo, collector, slog.Default())
	purgeJob.Retention = cfg.ConnectionRetention

	auditJob := sweep.NewAuditJob(userRepo, collectiveRepo, notificationRepo, collector, slog.Default())
	auditJob.NotificationTTL = cfg.NotificationTTL

	runner := sweep.NewRunner(purgeJob, auditJob, locker, slog.Default())
	runner.AuditHourUTC = cfg.AuditHourUTC

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("purge_interval", cfg.PurgeInterval),
		slog.Duration("connection_retention", cfg.ConnectionRetention),
		slog.Int("audit_hour_utc", cfg.AuditHourUTC),
	)

	// スイープランナーをメインgoroutineで実行（ブロッキング）
	runner.Start(ctx, cfg.PurgeInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// rateLimiterConfig はConfigのreq/min単位の値をrate.Limitに変換した設定を返す。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		limiterCfg.GeneralRate = perMinute(cfg.RateLimitGeneral)
		limiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitCreation > 0 {
		limiterCfg.CreationRate = perMinute(cfg.RateLimitCreation)
		limiterCfg.CreationBurst = cfg.RateLimitCreation
	}
	return limiterCfg
}

// perMinute はreq/minをreq/sec単位のrate.Limitに変換する。
func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
