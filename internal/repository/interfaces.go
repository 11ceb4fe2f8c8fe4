// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

// ErrIdentityExists は同一の外部IDを持つidentityが既に存在することを示す。
// 同時初回ログインの競合で片方のINSERTが一意制約に衝突した場合に返される。
// 呼び出し側は既存identityを再検索して勝者のユーザーを使用すること。
var ErrIdentityExists = errors.New("identity already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	// identitiesの一意制約(provider, provider_user_id)に衝突した場合は
	// ErrIdentityExistsを返し、どちらのレコードも作成しない。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	// ストア層の失敗はそのままエラーとして返す（サインアウト成功と区別するため）。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// 全ての操作はownerIDを必須のフィルタとして受け取る。
// 変更系操作はIDと所有者の両方に一致した場合のみ行を更新し、
// 一致行が0件だったかどうかをmatchedで返す。
// 「存在しない」と「他人の所有」は区別されない。
type TaskRepository interface {
	// ListByOwner は指定所有者のタスクを完了フラグでフィルタして返す。
	// 該当なしの場合は空スライスを返す（エラーではない）。
	ListByOwner(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// MarkComplete は完了フラグをtrueに更新する。Pendingに戻す操作は存在しない。
	MarkComplete(ctx context.Context, ownerID, taskID string) (matched bool, err error)

	// Update はタイトルと本文を更新する。完了フラグは変更しない。
	Update(ctx context.Context, ownerID, taskID, title, content string) (matched bool, err error)

	// Delete はタスクを完全に削除する。ソフトデリートは行わない。
	Delete(ctx context.Context, ownerID, taskID string) (matched bool, err error)
}
