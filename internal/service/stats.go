package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/repository"
	"github.com/librovault/library-service/pkg/kafka"
)

type StatsService struct {
	log  *zap.Logger
	repo repository.StatsRepository
}

func NewStatsService(repo repository.StatsRepository, log *zap.Logger) *StatsService {
	return &StatsService{
		log:  log,
		repo: repo,
	}
}

func (s *StatsService) ApplyEvent(ctx context.Context, event kafka.BorrowEvent) error {
	return s.repo.ApplyEvent(ctx, event)
}

func (s *StatsService) GetStats(ctx context.Context) ([]model.BookStat, error) {
	return s.repo.GetStats(ctx)
}
