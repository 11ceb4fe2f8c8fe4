package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresIdentityRepoはIdentityRepositoryインターフェースを満たすことを検証
func TestPostgresIdentityRepo_ImplementsInterface(t *testing.T) {
	var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 一意制約違反(23505)のみがErrIdentityExistsに変換される
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"一意制約違反", &pq.Error{Code: "23505"}, true},
		{"ラップされた一意制約違反", fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"}), true},
		{"外部キー制約違反", &pq.Error{Code: "23503"}, false},
		{"pq以外のエラー", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// 空文字列はNULLとして保存される
func TestNullable(t *testing.T) {
	if v := nullable(""); v.Valid {
		t.Error("empty string should map to NULL")
	}
	if v := nullable("user@example.com"); !v.Valid || v.String != "user@example.com" {
		t.Errorf("nullable(non-empty) = %+v, want valid", v)
	}
}

// ErrIdentityExistsはerrors.Isで判定できる番兵エラーであること
func TestErrIdentityExists_IsSentinel(t *testing.T) {
	wrapped := fmt.Errorf("create failed: %w", ErrIdentityExists)
	if !errors.Is(wrapped, ErrIdentityExists) {
		t.Error("wrapped ErrIdentityExists should match with errors.Is")
	}
}
