package handler

import (
	"context"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	VerifyOTP(ctx context.Context, email, otp string) error
	Login(ctx context.Context, email, password string) (model.AuthResponse, error)
	Me(ctx context.Context, email string) (model.User, error)
}

type BookService interface {
	AddBook(ctx context.Context, req model.AddBookRequest) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
}

type BorrowService interface {
	RecordBorrow(ctx context.Context, bookUid, email string) (string, error)
	ReturnBorrow(ctx context.Context, bookUid, email string) (string, error)
	MyBorrows(ctx context.Context, email string) ([]model.BorrowEntry, error)
	ListBorrows(ctx context.Context) ([]model.Borrow, error)
}

type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

type StatsService interface {
	GetStats(ctx context.Context) ([]model.BookStat, error)
}

var (
	_ AuthService   = (*service.AuthService)(nil)
	_ BookService   = (*service.BookService)(nil)
	_ BorrowService = (*service.BorrowService)(nil)
	_ UserService   = (*service.UserService)(nil)
	_ StatsService  = (*service.StatsService)(nil)
)
