package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

// --- モック定義 ---

type mockTaskRepo struct {
	listByOwnerFn  func(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error)
	createFn       func(ctx context.Context, t *model.Task) error
	markCompleteFn func(ctx context.Context, ownerID, taskID string) (bool, error)
	updateFn       func(ctx context.Context, ownerID, taskID, title, content string) (bool, error)
	deleteFn       func(ctx context.Context, ownerID, taskID string) (bool, error)
}

func (m *mockTaskRepo) ListByOwner(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, completed)
	}
	return []*model.Task{}, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, t *model.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTaskRepo) MarkComplete(ctx context.Context, ownerID, taskID string) (bool, error) {
	if m.markCompleteFn != nil {
		return m.markCompleteFn(ctx, ownerID, taskID)
	}
	return true, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, ownerID, taskID, title, content string) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, taskID, title, content)
	}
	return true, nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, ownerID, taskID string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, taskID)
	}
	return true, nil
}

// passthroughSanitizer はサニタイズを行わないテスト用実装。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(s string) string { return s }

// stripSanitizer は固定値に変換して呼び出しの有無を観測するテスト用実装。
type stripSanitizer struct {
	replaceWith string
}

func (s stripSanitizer) Sanitize(string) string { return s.replaceWith }

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- テスト ---

func TestService_ListPending_EmptyResultIsNotAnError(t *testing.T) {
	repo := &mockTaskRepo{
		listByOwnerFn: func(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error) {
			if completed {
				t.Errorf("completed = true, want false")
			}
			return []*model.Task{}, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	tasks, err := svc.ListPending(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("tasks = %v, want empty slice", tasks)
	}
}

func TestService_ListCompleted_FiltersByCompletedFlag(t *testing.T) {
	var gotCompleted bool
	repo := &mockTaskRepo{
		listByOwnerFn: func(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error) {
			gotCompleted = completed
			return []*model.Task{{ID: "t1", IsCompleted: true}}, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	tasks, err := svc.ListCompleted(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotCompleted {
		t.Error("expected completed filter to be true")
	}
	if len(tasks) != 1 {
		t.Errorf("len(tasks) = %d, want 1", len(tasks))
	}
}

func TestService_Create_SetsOwnerAndPendingState(t *testing.T) {
	var created *model.Task
	repo := &mockTaskRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			created = task
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.Create(context.Background(), "owner-1", "買い物", "牛乳を買う")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if created.UserID != "owner-1" {
		t.Errorf("UserID = %q, want %q", created.UserID, "owner-1")
	}
	if created.IsCompleted {
		t.Error("new task should start as pending")
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Errorf("ID = %q, want a valid UUID", created.ID)
	}
}

// サニタイズ後に空になる入力はバリデーションエラーになり、行は作成されない
func TestService_Create_EmptyAfterSanitization_ReturnsValidationError(t *testing.T) {
	repo := &mockTaskRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			t.Fatal("Create should not be called")
			return nil
		},
	}
	svc := NewService(repo, stripSanitizer{replaceWith: ""})

	err := svc.Create(context.Background(), "owner-1", "<script>alert(1)</script>", "body")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_Create_EmptyTitle_ReturnsValidationError(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, passthroughSanitizer{})

	err := svc.Create(context.Background(), "owner-1", "", "body")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_MarkComplete_NoMatchingRow_ReturnsNotFound(t *testing.T) {
	repo := &mockTaskRepo{
		markCompleteFn: func(ctx context.Context, ownerID, taskID string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.MarkComplete(context.Background(), "owner-1", uuid.New().String())
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

// 他人のタスクIDを指定しても未検出としてのみ扱われる（所有の有無は露出しない）
func TestService_MarkComplete_PassesOwnerScopeToRepository(t *testing.T) {
	var gotOwnerID, gotTaskID string
	taskID := uuid.New().String()
	repo := &mockTaskRepo{
		markCompleteFn: func(ctx context.Context, ownerID, id string) (bool, error) {
			gotOwnerID = ownerID
			gotTaskID = id
			return true, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	if err := svc.MarkComplete(context.Background(), "owner-1", taskID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOwnerID != "owner-1" || gotTaskID != taskID {
		t.Errorf("repo called with (%q, %q), want (%q, %q)", gotOwnerID, gotTaskID, "owner-1", taskID)
	}
}

// UUID形式でないIDはDBに渡さず未検出として扱う
func TestService_MarkComplete_MalformedID_ReturnsNotFound(t *testing.T) {
	repo := &mockTaskRepo{
		markCompleteFn: func(ctx context.Context, ownerID, taskID string) (bool, error) {
			t.Fatal("repository should not be called for malformed IDs")
			return false, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.MarkComplete(context.Background(), "owner-1", "not-a-uuid")
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

func TestService_MarkComplete_EmptyID_ReturnsValidationError(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, passthroughSanitizer{})

	err := svc.MarkComplete(context.Background(), "owner-1", "")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_Update_SanitizesBeforeValidation(t *testing.T) {
	var gotTitle, gotContent string
	repo := &mockTaskRepo{
		updateFn: func(ctx context.Context, ownerID, taskID, title, content string) (bool, error) {
			gotTitle = title
			gotContent = content
			return true, nil
		},
	}
	svc := NewService(repo, stripSanitizer{replaceWith: "clean"})

	err := svc.Update(context.Background(), "owner-1", uuid.New().String(), "<b>raw</b>", "<i>raw</i>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTitle != "clean" || gotContent != "clean" {
		t.Errorf("repo received (%q, %q), want sanitized values", gotTitle, gotContent)
	}
}

func TestService_Update_NoMatchingRow_ReturnsNotFound(t *testing.T) {
	repo := &mockTaskRepo{
		updateFn: func(ctx context.Context, ownerID, taskID, title, content string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.Update(context.Background(), "owner-1", uuid.New().String(), "title", "content")
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

func TestService_Delete_NoMatchingRow_ReturnsNotFound(t *testing.T) {
	repo := &mockTaskRepo{
		deleteFn: func(ctx context.Context, ownerID, taskID string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.Delete(context.Background(), "owner-1", uuid.New().String())
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

func TestService_Delete_RepositoryError_IsWrapped(t *testing.T) {
	repo := &mockTaskRepo{
		deleteFn: func(ctx context.Context, ownerID, taskID string) (bool, error) {
			return false, errors.New("connection reset")
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	err := svc.Delete(context.Background(), "owner-1", uuid.New().String())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("infrastructure error should not be an APIError, got %v", apiErr)
	}
}
