package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type BookRepository interface {
	CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error)
	GetBookByUid(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	SetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error
	BumpOTPAttempts(ctx context.Context, email string) error
	VerifyUser(ctx context.Context, email string) error
	ListVerifiedUsers(ctx context.Context) ([]model.User, error)
}

type BorrowRepository interface {
	RecordBorrow(ctx context.Context, book model.Book, user model.User, now, dueDate time.Time) error
	ReturnBorrow(ctx context.Context, book model.Book, user model.User, now time.Time) (model.Borrow, error)
	HasOpenBorrow(ctx context.Context, userID, bookID int) (bool, error)
	ListUserBorrows(ctx context.Context, userID int) ([]model.BorrowEntry, error)
	ListBorrows(ctx context.Context) ([]model.Borrow, error)
	FindOverdueUnnotified(ctx context.Context, cutoff time.Time) ([]model.OverdueBorrow, error)
	MarkNotified(ctx context.Context, borrowID int) error
}

type StatsRepository interface {
	ApplyEvent(ctx context.Context, event kafka.BorrowEvent) error
	GetStats(ctx context.Context) ([]model.BookStat, error)
}

const (
	booksTableName     = `books`
	usersTableName     = `users`
	userBooksTableName = `user_books`
	borrowsTableName   = `borrows`
	bookStatsTableName = `book_stats`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
