package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/middleware"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// サービス層
	AuthService    AuthServiceInterface
	BoardService   BoardServiceInterface
	CommentService CommentServiceInterface
	ScrapService   ScrapServiceInterface
	ProjectService ProjectServiceInterface
	ProfileService ProfileServiceInterface
	DraftRepo      DraftRepositoryInterface
	DraftSlot      DraftSlotInterface
	NameResolver   UserNameResolver
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Auth → RateLimit(General)
//
// 認証ルート（/v1/auth/signup, login, refresh）とhealth/metricsは
// 認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	boardHandler := NewBoardHandler(deps.BoardService, deps.NameResolver)
	boardComments := NewCommentHandler(deps.CommentService, deps.NameResolver, model.CommentTargetBoard)
	projectComments := NewCommentHandler(deps.CommentService, deps.NameResolver, model.CommentTargetProject)
	scrapHandler := NewScrapHandler(deps.ScrapService, deps.Collector)
	projectHandler := NewProjectHandler(deps.ProjectService, deps.NameResolver, deps.Collector)
	draftHandler := NewDraftHandler(deps.DraftRepo, deps.DraftSlot, deps.Collector)
	userHandler := NewUserHandler(deps.ProfileService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/v1/auth/logout", authHandler.Logout)

		// 掲示板
		r.Route("/v1/board", func(r chi.Router) {
			r.Get("/", boardHandler.List)
			// 投稿作成には書き込み系レート制限を追加
			r.With(deps.RateLimiter.WriteOperationMiddleware()).Post("/", boardHandler.Create)

			r.Get("/myposts", boardHandler.ListMyPosts)

			// スクラップ帳
			r.Get("/scrap", scrapHandler.List)
			r.Delete("/scrap", scrapHandler.ClearAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", boardHandler.Get)
				r.Put("/", boardHandler.Update)
				r.Delete("/", boardHandler.Delete)

				r.Get("/comments", boardComments.List)
				r.Post("/comments", boardComments.Create)

				r.Get("/scrap", scrapHandler.Status)
				r.Post("/scrap", scrapHandler.Add)
				r.Delete("/scrap", scrapHandler.Remove)
			})
		})

		// コメント（対象種別に依存しない更新・削除）
		r.Route("/v1/comments/{commentID}", func(r chi.Router) {
			r.Put("/", boardComments.Update)
			r.Delete("/", boardComments.Delete)
		})

		// プロジェクト募集
		r.Route("/v1/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.With(deps.RateLimiter.WriteOperationMiddleware()).Post("/", projectHandler.Create)
			r.Post("/search", projectHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Post("/apply", projectHandler.Apply)
				r.Get("/dashboard", projectHandler.Dashboard)
				r.Put("/overrides", projectHandler.SaveOverride)
				r.Delete("/overrides", projectHandler.ClearOverride)

				r.Get("/comments", projectComments.List)
				r.Post("/comments", projectComments.Create)
			})
		})

		// 募集下書き
		r.Route("/v1/drafts", func(r chi.Router) {
			r.Get("/", draftHandler.List)
			r.Post("/", draftHandler.Save)
			r.Delete("/", draftHandler.ClearAll)

			r.Route("/slot", func(r chi.Router) {
				r.Put("/", draftHandler.SaveSlot)
				r.Get("/", draftHandler.LoadSlot)
				r.Delete("/", draftHandler.ClearSlot)
				r.Get("/info", draftHandler.SlotInfo)
			})

			r.Delete("/{draftID}", draftHandler.Delete)
		})

		// ユーザープロフィール
		r.Route("/v1/users/me", func(r chi.Router) {
			r.Get("/", userHandler.Me)
			r.Put("/", userHandler.UpdateMe)
			r.Get("/portfolio-preview", userHandler.PortfolioPreview)
		})
	})

	return r
}
