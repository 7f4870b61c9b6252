package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/repository"
	"github.com/librovault/library-service/pkg/kafka"
)

// loanPeriod is the fixed loan term, counted from borrow time.
const loanPeriod = 7 * 24 * time.Hour

type BorrowService struct {
	books    repository.BookRepository
	users    repository.UserRepository
	borrows  repository.BorrowRepository
	enqueuer Enqueuer
	log      *zap.Logger
	now      func() time.Time
}

func NewBorrowService(books repository.BookRepository, users repository.UserRepository,
	borrows repository.BorrowRepository, enqueuer Enqueuer, log *zap.Logger) *BorrowService {
	return &BorrowService{
		books:    books,
		users:    users,
		borrows:  borrows,
		enqueuer: enqueuer,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *BorrowService) WithClock(now func() time.Time) *BorrowService {
	s.now = now
	return s
}

func (s *BorrowService) RecordBorrow(ctx context.Context, bookUid, email string) (string, error) {
	book, user, err := s.loadBookAndUser(ctx, bookUid, email)
	if err != nil {
		return "", err
	}
	if book.Quantity == 0 {
		return "", errs.ErrNotAvailable
	}
	open, err := s.borrows.HasOpenBorrow(ctx, user.ID, book.ID)
	if err != nil {
		return "", err
	}
	if open {
		return "", errs.ErrAlreadyBorrowed
	}

	now := s.now()
	if err := s.borrows.RecordBorrow(ctx, book, user, now, now.Add(loanPeriod)); err != nil {
		return "", err
	}
	s.publish(kafka.BorrowEvent{BookID: book.ID, At: now})

	return "Book borrowed successfully", nil
}

func (s *BorrowService) ReturnBorrow(ctx context.Context, bookUid, email string) (string, error) {
	book, user, err := s.loadBookAndUser(ctx, bookUid, email)
	if err != nil {
		return "", err
	}

	now := s.now()
	borrow, err := s.borrows.ReturnBorrow(ctx, book, user, now)
	if err != nil {
		return "", err
	}
	s.publish(kafka.BorrowEvent{BookID: book.ID, Returned: true, At: now})

	// the late fee and the borrowing price are reported as one total
	if borrow.Fine != 0 {
		return fmt.Sprintf("Book returned successfully. The total charges, including fine, are ₹%d", borrow.Fine+book.Price), nil
	}
	return fmt.Sprintf("Book returned successfully. The total charges are ₹%d", book.Price), nil
}

func (s *BorrowService) MyBorrows(ctx context.Context, email string) ([]model.BorrowEntry, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.borrows.ListUserBorrows(ctx, user.ID)
}

func (s *BorrowService) ListBorrows(ctx context.Context) ([]model.Borrow, error) {
	return s.borrows.ListBorrows(ctx)
}

func (s *BorrowService) loadBookAndUser(ctx context.Context, bookUid, email string) (model.Book, model.User, error) {
	var (
		book model.Book
		user model.User
	)
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		b, err := s.books.GetBookByUid(ctx, bookUid)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrBookNotFound
			}
			return err
		}
		book = b
		return nil
	})
	gg.Go(func() error {
		u, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrUserNotFound
			}
			return err
		}
		user = u
		return nil
	})
	if err := gg.Wait(); err != nil {
		return model.Book{}, model.User{}, err
	}
	return book, user, nil
}

func (s *BorrowService) publish(event kafka.BorrowEvent) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.Enqueue(kafka.BorrowTopic, event); err != nil {
		s.log.Warn("publish borrow event", zap.Error(err))
	}
}
