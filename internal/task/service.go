// Package task はタスクCRUDのビジネスロジックを提供する。
//
// 全ての操作は認可ゲートが解決した所有者IDを必須の第1引数として受け取る。
// クライアントが送信した所有者IDを信用することは決してない。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
	"github.com/abdulwedud33/advanced-todo-backend/internal/repository"
	"github.com/abdulwedud33/advanced-todo-backend/internal/security"
)

// Service はタスクに関するビジネスロジックを提供する。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
	}
}

// ListPending は未完了タスクの一覧を返す。
// タスクが1件もない場合は空スライスを返す（エラー扱いにはしない）。
func (s *Service) ListPending(ctx context.Context, ownerID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}
	return tasks, nil
}

// ListCompleted は完了済みタスクの一覧を返す。
func (s *Service) ListCompleted(ctx context.Context, ownerID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
// タイトル・本文はサニタイズ後に空でないことを検証し、
// 空の場合はバリデーションエラーを返して行を作成しない。
func (s *Service) Create(ctx context.Context, ownerID, title, content string) error {
	title = s.sanitizer.Sanitize(title)
	content = s.sanitizer.Sanitize(content)

	if title == "" || content == "" {
		return model.NewValidationError("タイトルと本文は必須です。")
	}

	now := time.Now()
	t := &model.Task{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       title,
		Content:     content,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// MarkComplete はタスクの完了フラグをtrueにする。
// 遷移は Pending -> Completed の一方向のみで、戻す操作は提供しない。
// IDと所有者の両方に一致する行がない場合はタスク未検出エラーを返す。
func (s *Service) MarkComplete(ctx context.Context, ownerID, taskID string) error {
	if taskID == "" {
		return model.NewValidationError("タスクIDは必須です。")
	}
	if !isValidTaskID(taskID) {
		// 形式不正なIDは存在しないIDと同様に扱う
		return model.NewTaskNotFoundError(taskID)
	}

	matched, err := s.taskRepo.MarkComplete(ctx, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("failed to mark task complete: %w", err)
	}
	if !matched {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// Update はタスクのタイトルと本文を更新する。完了フラグは変更しない。
// 一致行の検査はUPDATE実行後のRowsAffectedに対してのみ行う。
func (s *Service) Update(ctx context.Context, ownerID, taskID, title, content string) error {
	if taskID == "" {
		return model.NewValidationError("タスクIDは必須です。")
	}

	title = s.sanitizer.Sanitize(title)
	content = s.sanitizer.Sanitize(content)
	if title == "" || content == "" {
		return model.NewValidationError("タイトルと本文は必須です。")
	}

	if !isValidTaskID(taskID) {
		return model.NewTaskNotFoundError(taskID)
	}

	matched, err := s.taskRepo.Update(ctx, ownerID, taskID, title, content)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if !matched {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// Delete はタスクを完全に削除する。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	if taskID == "" {
		return model.NewValidationError("タスクIDは必須です。")
	}
	if !isValidTaskID(taskID) {
		return model.NewTaskNotFoundError(taskID)
	}

	matched, err := s.taskRepo.Delete(ctx, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !matched {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// isValidTaskID はタスクIDがUUID形式かどうかを判定する。
// 不正な形式をDBに渡すとuuid型のキャストエラーになるため事前に弾く。
func isValidTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
