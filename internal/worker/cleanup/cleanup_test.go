package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// --- モック定義 ---

type fakeResult struct {
	rowsAffected int64
	err          error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, r.err }

type fakeExecutor struct {
	execFn   func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	lastSQL   string
	execCalls int
}

func (f *fakeExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.lastSQL = query
	f.execCalls++
	if f.execFn != nil {
		return f.execFn(ctx, query, args...)
	}
	return fakeResult{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeCleanupMetrics struct {
	deleted int64
}

func (f *fakeCleanupMetrics) RecordSessionsDeleted(count int64) { f.deleted += count }

// --- テスト ---

func TestSessionCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	db := &fakeExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return fakeResult{rowsAffected: 3}, nil
		},
	}
	metrics := &fakeCleanupMetrics{}
	job := NewSessionCleanupJob(db, testLogger(), metrics)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.execCalls != 1 {
		t.Errorf("exec count = %d, want 1", db.execCalls)
	}
	if !strings.Contains(db.lastSQL, "DELETE FROM sessions") {
		t.Errorf("unexpected SQL: %q", db.lastSQL)
	}
	if !strings.Contains(db.lastSQL, "expires_at < now()") {
		t.Errorf("delete must be scoped to expired sessions: %q", db.lastSQL)
	}
	if metrics.deleted != 3 {
		t.Errorf("recorded deleted count = %d, want 3", metrics.deleted)
	}
}

// 削除対象がなくてもエラーにならない（冪等）
func TestSessionCleanupJob_Run_NothingToDelete(t *testing.T) {
	db := &fakeExecutor{}
	job := NewSessionCleanupJob(db, testLogger(), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionCleanupJob_Run_ExecFailure_ReturnsError(t *testing.T) {
	db := &fakeExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	job := NewSessionCleanupJob(db, testLogger(), nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
