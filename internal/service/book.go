package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/repository"
)

type BookService struct {
	log  *zap.Logger
	repo repository.BookRepository
}

func NewBookService(repo repository.BookRepository, log *zap.Logger) *BookService {
	return &BookService{
		log:  log,
		repo: repo,
	}
}

func (s *BookService) AddBook(ctx context.Context, req model.AddBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *BookService) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *BookService) DeleteBook(ctx context.Context, bookUid string) error {
	return s.repo.DeleteBook(ctx, bookUid)
}
