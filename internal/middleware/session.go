// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// SessionDeleter はセッションの破棄に必要なインターフェース。
type SessionDeleter interface {
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// UserFinder はユーザーレコードの存在確認に必要なインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionGateConfig は認可ゲートの設定。
type SessionGateConfig struct {
	SignInURL    string // ブラウザ向けリダイレクト先（サインイン画面）
	CookieDomain string
	CookieSecure bool
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// リクエストを認可する認可ゲートミドルウェアを返す。
//
//   - セッションがない・期限切れ・破棄済みの場合は一律に未認証として拒否する。
//   - セッションは有効だが対応するユーザーレコードが存在しない場合は403で拒否し、
//     そのユーザーの全セッションを破棄して再利用を防ぐ。
//   - 拒否の提示方法のみ呼び出し元の種類で分岐する: JSONクライアントには
//     構造化エラー、ブラウザにはサインイン画面へのリダイレクト。拒否自体は無条件。
//   - 成功時はセッションから解決したユーザーIDをコンテキストに注入する。
//     リクエストボディやクエリのユーザーIDを認可に使うことは決してない。
func NewSessionMiddleware(
	sessions SessionFinder,
	sessionDeleter SessionDeleter,
	users UserFinder,
	config SessionGateConfig,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				denyUnauthorized(w, r, config)
				return
			}

			// 2. セッションの有効性を検証（期限切れ・破棄済みはnil）
			session, err := sessions.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if session == nil {
				denyUnauthorized(w, r, config)
				return
			}

			// 3. セッションが指すユーザーレコードの存在確認
			user, err := users.FindByID(r.Context(), session.UserID)
			if err != nil {
				slog.Error("failed to find session user",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				// ユーザーが外部で消された場合はそのユーザーの全セッションを
				// まとめて破棄する。別端末に残る同一ユーザーのセッションも
				// 同じ403にしかならないため、単一セッションの削除では足りない。
				if delErr := sessionDeleter.DeleteByUserID(r.Context(), session.UserID); delErr != nil {
					slog.Error("failed to invalidate sessions of missing user",
						slog.String("error", delErr.Error()),
						slog.String("user_id", session.UserID),
					)
				}
				clearSessionCookie(w, config)
				denyForbidden(w, r, config)
				return
			}

			// 4. 解決済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// prefersHTML は呼び出し元がブラウザ（HTML希望）かどうかを判定する。
func prefersHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// denyUnauthorized は未認証リクエストを拒否する。
func denyUnauthorized(w http.ResponseWriter, r *http.Request, config SessionGateConfig) {
	if prefersHTML(r) {
		http.Redirect(w, r, config.SignInURL, http.StatusSeeOther)
		return
	}
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// denyForbidden はユーザーレコードを失った有効セッションを拒否する。
func denyForbidden(w http.ResponseWriter, r *http.Request, config SessionGateConfig) {
	if prefersHTML(r) {
		http.Redirect(w, r, config.SignInURL, http.StatusSeeOther)
		return
	}
	WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
}

// clearSessionCookie はクライアント側のセッションCookieを失効させる。
func clearSessionCookie(w http.ResponseWriter, config SessionGateConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
