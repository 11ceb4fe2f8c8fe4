package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdulwedud33/advanced-todo-backend/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	SessionDeleter    middleware.SessionDeleter
	UserFinder        middleware.UserFinder
	SessionGateConfig middleware.SessionGateConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 監視
	HealthChecker   HealthChecker
	MetricsRecorder middleware.HTTPMetricsRecorder
	MetricsHandler  http.Handler

	// 認証
	AuthService  AuthServiceInterface
	AuthConfig   AuthHandlerConfig
	LoginMetrics LoginMetricsRecorder

	// タスク
	TaskService TaskServiceInterface
	TaskMetrics TaskMetricsRecorder

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging → (認証ルートのみ) Session → RateLimit
//
// 認証フロー（/auth/*, /signIn, /signOut）、/health、/metricsは
// 認可ゲートの外に配置する。/signOutはCookieを自前で読むソフト認証。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.LoginMetrics)
	taskHandler := NewTaskHandler(deps.TaskService, deps.TaskMetrics)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/auth/google", authHandler.Login)
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Get("/signIn", authHandler.SignIn)
	r.Get("/signOut", authHandler.SignOut)

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session（認可ゲート） → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(
			deps.SessionFinder, deps.SessionDeleter, deps.UserFinder, deps.SessionGateConfig,
		))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// タスク管理
		r.Get("/", taskHandler.ListPending)
		r.Get("/completed", taskHandler.ListCompleted)
		if deps.RateLimiter != nil {
			// タスク作成には専用のレート制限を追加
			r.With(deps.RateLimiter.TaskCreationMiddleware()).Post("/add", taskHandler.Add)
		} else {
			r.Post("/add", taskHandler.Add)
		}
		r.Patch("/done", taskHandler.Done)
		r.Patch("/edit", taskHandler.Edit)
		r.Delete("/completed/delete", taskHandler.Remove)

		// ユーザー情報
		r.Get("/user", userHandler.Me)
	})

	return r
}

// healthHandler はDB接続の死活を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
