package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// 全てのクエリはuser_idを必須の条件として含み、
// 所有者以外からの参照・変更を排除する。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByOwner は指定所有者のタスクを完了フラグでフィルタして返す。
// 該当なしの場合は空スライスを返す。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, is_completed, created_at, updated_at
		 FROM tasks
		 WHERE user_id = $1 AND is_completed = $2
		 ORDER BY created_at DESC`,
		ownerID, completed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(
			&task.ID, &task.UserID, &task.Title, &task.Content,
			&task.IsCompleted, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, content, is_completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Content, task.IsCompleted,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// MarkComplete は完了フラグをtrueに更新する。
// IDと所有者の両方に一致した場合のみ更新し、一致行数を実行後に検査する。
func (r *PostgresTaskRepo) MarkComplete(ctx context.Context, ownerID, taskID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET is_completed = TRUE, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		taskID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark task complete: %w", err)
	}
	return matchedRows(result)
}

// Update はタイトルと本文を更新する。完了フラグは変更しない。
func (r *PostgresTaskRepo) Update(ctx context.Context, ownerID, taskID, title, content string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, content = $2, updated_at = now()
		 WHERE id = $3 AND user_id = $4`,
		title, content, taskID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return matchedRows(result)
}

// Delete はタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, ownerID, taskID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return matchedRows(result)
}

// matchedRows は実行結果から一致行の有無を返す。
func matchedRows(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
