// Package user はユーザー情報のビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
	"github.com/abdulwedud33/advanced-todo-backend/internal/repository"
)

// Service はユーザーに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get は指定IDのユーザーを取得する。
// 見つからない場合はユーザー未検出エラーを返す。
// セッションは有効だがユーザーレコードが消えているケースは
// 認可ゲート側で403として処理されるため、通常ここには到達しない。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
