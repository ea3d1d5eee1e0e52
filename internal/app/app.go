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
	"golang.org/x/time/rate"

	"github.com/hitoshi/teamit/internal/auth"
	"github.com/hitoshi/teamit/internal/board"
	"github.com/hitoshi/teamit/internal/comment"
	"github.com/hitoshi/teamit/internal/config"
	"github.com/hitoshi/teamit/internal/database"
	"github.com/hitoshi/teamit/internal/draft"
	"github.com/hitoshi/teamit/internal/handler"
	"github.com/hitoshi/teamit/internal/kvstore"
	"github.com/hitoshi/teamit/internal/logger"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/middleware"
	"github.com/hitoshi/teamit/internal/override"
	"github.com/hitoshi/teamit/internal/profile"
	"github.com/hitoshi/teamit/internal/project"
	"github.com/hitoshi/teamit/internal/repository"
	"github.com/hitoshi/teamit/internal/scrap"
	"github.com/hitoshi/teamit/internal/security"
	"github.com/hitoshi/teamit/internal/worker/cleanup"
	"github.com/hitoshi/teamit/internal/worker/closer"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "info")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップする
	if cfg.LogLevel != "info" {
		logger.SetupDefault(w, cfg.LogLevel)
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

// newKVStore はRedisのKVストアを生成する。
// REDIS_URLが未設定、または接続に失敗した場合はメモリストアへフォールバックする。
// 下書き・オーバーライドは失われても致命的でないため、起動をブロックしない。
func newKVStore(ctx context.Context, redisURL string) kvstore.Store {
	if redisURL == "" {
		slog.Info("kvstore: using in-memory store (REDIS_URL not set)")
		return kvstore.NewMemoryStore()
	}

	client, err := kvstore.NewRedisClient(ctx, redisURL)
	if err != nil {
		slog.Warn("kvstore: redis connection failed, using in-memory store",
			slog.String("error", err.Error()),
		)
		return kvstore.NewMemoryStore()
	}

	slog.Info("kvstore: redis connection established")
	return kvstore.NewRedisStore(client)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. KVストア（下書き・ダッシュボードオーバーライド用）
	store := newKVStore(context.Background(), cfg.RedisURL)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	appRepo := repository.NewPostgresApplicationRepo(db)
	scrapRepo := repository.NewPostgresScrapRepo(db)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokenRepo, auth.ServiceConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	boardService := board.NewService(postRepo, sanitizer)
	commentService := comment.NewService(commentRepo, sanitizer)
	scrapService := scrap.NewService(scrapRepo, postRepo, scrap.NewCache())
	projectService := project.NewService(projectRepo, appRepo, override.NewStore(store), sanitizer)
	previewFetcher := profile.NewLinkPreviewFetcher(ssrfGuard)
	profileService := profile.NewService(userRepo, ssrfGuard, previewFetcher)

	// 6. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 7. レート制限（req/min -> req/sec に変換）
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		WriteRate:       rate.Limit(float64(cfg.RateLimitWrite) / 60.0),
		WriteBurst:      cfg.RateLimitWrite,
		CleanupInterval: 5 * time.Minute,
	})
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		Collector: collector,
		Gatherer:  registry,

		AuthService:    authService,
		BoardService:   boardService,
		CommentService: commentService,
		ScrapService:   scrapService,
		ProjectService: projectService,
		ProfileService: profileService,
		DraftRepo:      draft.NewRepository(store),
		DraftSlot:      draft.NewSlotCache(store),
		NameResolver:   handler.NewUserNameResolverAdapter(userRepo),
	})

	// 9. HTTPサーバーの起動
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 募集自動クローズスケジューラとトークンクリーンアップを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. 募集自動クローズスケジューラの初期化
	projectRepo := repository.NewPostgresProjectRepo(db)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	closeJob := closer.NewJob(projectRepo, collector, slog.Default())
	scheduler := closer.NewScheduler(closeJob, cfg.RecruitCloseInterval, slog.Default())

	// 3. トークンクリーンアップジョブの初期化
	cleanupJob := cleanup.NewTokenCleanupJob(db, slog.Default())
	cleanupJob.GraceHours = cfg.TokenGraceHours

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("recruit_close_interval", cfg.RecruitCloseInterval),
		slog.Duration("token_cleanup_interval", cfg.TokenCleanupInterval),
	)

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start close scheduler: %w", err)
	}

	// トークンクリーンアップをバックグラウンドで定期実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("token cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(cfg.TokenCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("token cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	<-ctx.Done()
	scheduler.Stop()

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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
