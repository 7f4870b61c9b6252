package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/repository"
)

type UserService struct {
	log  *zap.Logger
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		log:  log,
		repo: repo,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListVerifiedUsers(ctx)
}
