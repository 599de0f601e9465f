package repository

import (
	"context"
	"errors"

	"sweetshop/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

// ユーザーの永続化（保存・取得）だけを約束。
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}
