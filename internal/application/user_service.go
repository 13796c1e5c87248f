package application

import (
	"context"
	"fmt"

	"github.com/campushq/go-campus-ticketing/internal/domain/user"
)

type UserService struct {
	userRepo user.Repository
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo}
}

type CreateUserInput struct {
	Name    string
	Email   string
	Type    user.Type
	College string
}

// CreateUser はサインアップ後のプロフィール作成
// 認証自体は外部コラボレーターが済ませている前提
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*user.User, error) {
	u := user.NewUser(input.Name, input.Email, input.Type, input.College)
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

type UpdateUserInput struct {
	ID      string
	Name    string
	College string
}

func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	u.Name = input.Name
	u.College = input.College
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
