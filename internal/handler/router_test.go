package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdulwedud33/advanced-todo-backend/internal/middleware"
	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

// --- ルーター用モック ---

type routerSessionStore struct {
	session *model.Session
}

func (s *routerSessionStore) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if s.session != nil && s.session.ID == id {
		return s.session, nil
	}
	return nil, nil
}

func (s *routerSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	return nil
}

type routerUserStore struct {
	user *model.User
}

func (s *routerUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) PingContext(ctx context.Context) error {
	return f.err
}

// newTestRouter はログイン済みユーザー1人分のモック一式でルーターを構成する。
func newTestRouter(taskSvc TaskServiceInterface) http.Handler {
	sessions := &routerSessionStore{
		session: &model.Session{
			ID:        "live-session",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(1 * time.Hour),
		},
	}
	users := &routerUserStore{
		user: &model.User{ID: "user-1", Email: "user@example.com", Name: "テストユーザー"},
	}

	return NewRouter(&RouterDeps{
		SessionFinder:  sessions,
		SessionDeleter: sessions,
		UserFinder:     users,
		SessionGateConfig: middleware.SessionGateConfig{
			SignInURL: "https://app.example.com/signIn",
		},
		CORSAllowedOrigin: "https://app.example.com",
		HealthChecker:     &fakeHealthChecker{},
		AuthService:       &mockAuthService{},
		AuthConfig: AuthHandlerConfig{
			BaseURL:       "https://app.example.com",
			SignInURL:     "https://app.example.com/signIn",
			SessionMaxAge: 86400,
		},
		TaskService: taskSvc,
		UserService: &mockUserService{
			getFn: func(ctx context.Context, userID string) (*model.User, error) {
				return &model.User{ID: userID, Email: "user@example.com"}, nil
			},
		},
	})
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "live-session"})
	return req
}

// --- テスト ---

// 保護ルートはセッションCookieがないと401になる
func TestRouter_ProtectedRoutes_RequireSession(t *testing.T) {
	router := newTestRouter(&mockTaskService{})

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/completed"},
		{http.MethodPost, "/add"},
		{http.MethodPatch, "/done"},
		{http.MethodPatch, "/edit"},
		{http.MethodDelete, "/completed/delete"},
		{http.MethodGet, "/user"},
	}

	for _, tt := range protected {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

// 有効なセッションがあれば保護ルートに到達できる
func TestRouter_ProtectedRoute_WithValidSession(t *testing.T) {
	router := newTestRouter(&mockTaskService{})

	req := withSession(httptest.NewRequest(http.MethodGet, "/", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want %q", body, "[]")
	}
}

func TestRouter_TaskLifecycleEndpoints(t *testing.T) {
	router := newTestRouter(&mockTaskService{})

	req := withSession(httptest.NewRequest(http.MethodPost, "/add",
		strings.NewReader(`{"title":"買い物","content":"牛乳を買う"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("POST /add: status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}

	req = withSession(httptest.NewRequest(http.MethodPatch, "/done", strings.NewReader(`{"id":"t1"}`)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("PATCH /done: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	req = withSession(httptest.NewRequest(http.MethodDelete, "/completed/delete", strings.NewReader(`{"id":"t1"}`)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("DELETE /completed/delete: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// 認証フローと監視用のルートは認可ゲートの外にある
func TestRouter_PublicRoutes_DoNotRequireSession(t *testing.T) {
	router := newTestRouter(&mockTaskService{})

	public := []struct {
		path       string
		wantStatus int
	}{
		{"/auth/google", http.StatusTemporaryRedirect},
		{"/signIn", http.StatusTemporaryRedirect},
		{"/signOut", http.StatusTemporaryRedirect},
		{"/health", http.StatusOK},
	}

	for _, tt := range public {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Result().StatusCode != tt.wantStatus {
			t.Errorf("GET %s: status = %d, want %d", tt.path, w.Result().StatusCode, tt.wantStatus)
		}
	}
}

func TestRouter_Health_Unhealthy_Returns503(t *testing.T) {
	router := NewRouter(&RouterDeps{
		SessionFinder:  &routerSessionStore{},
		SessionDeleter: &routerSessionStore{},
		UserFinder:     &routerUserStore{},
		HealthChecker:  &fakeHealthChecker{err: errors.New("connection refused")},
		AuthService:    &mockAuthService{},
		TaskService:    &mockTaskService{},
		UserService:    &mockUserService{},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(&mockTaskService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
