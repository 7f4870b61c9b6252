package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/fine"
	"github.com/librovault/library-service/internal/model"
)

type borrowRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBorrowRepository(db *sqlx.DB, log *zap.Logger) (*borrowRepository, error) {
	return &borrowRepository{
		db:  db,
		log: log.Named("borrow-repo"),
	}, nil
}

// RecordBorrow applies the borrow side effects in one transaction: the stock
// decrement, the user's borrow entry and the ledger row. The decrement is
// conditional on quantity > 0 so concurrent borrows of the last copy cannot
// over-commit.
func (r *borrowRepository) RecordBorrow(ctx context.Context, book model.Book, user model.User, now, dueDate time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const decQ = `
	update books
	set quantity = quantity - 1, availability = quantity - 1 > 0
	where id = $1 and quantity > 0`
	res, err := tx.ExecContext(ctx, decQ, book.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = errs.ErrNotAvailable
		return err
	}

	q, args, err := qb.Insert(userBooksTableName).
		Columns("user_id", "book_id", "book_title", "borrowed_date", "due_date").
		Values(user.ID, book.ID, book.Title, now, dueDate).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = errs.ErrAlreadyBorrowed
		}
		return err
	}

	q, args, err = qb.Insert(borrowsTableName).
		Columns("borrow_uid", "user_id", "user_name", "user_email", "book_id", "due_date", "price").
		Values(uuid.New(), user.ID, user.Name, user.Email, book.ID, dueDate, book.Price).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("RecordBorrow ledger insert", zap.String("q", q), zap.Any("args", args))
		return err
	}

	return tx.Commit()
}

// ReturnBorrow closes the loan in one transaction: marks the user's entry
// returned, restores the stock and settles the ledger row with its return
// date and fine. The ledger lookup stays an independent check against the
// user's entry, as in the original workflow.
func (r *borrowRepository) ReturnBorrow(ctx context.Context, book model.Book, user model.User, now time.Time) (model.Borrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrow{}, errors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const entryQ = `
	update user_books set returned = true
	where user_id = $1 and book_id = $2 and returned = false
	returning id`
	var entryID int
	if err = tx.QueryRowContext(ctx, entryQ, user.ID, book.ID).Scan(&entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.ErrNotBorrowed
		}
		return model.Borrow{}, err
	}

	const incQ = `
	update books
	set quantity = quantity + 1, availability = true
	where id = $1`
	if _, err = tx.ExecContext(ctx, incQ, book.ID); err != nil {
		return model.Borrow{}, err
	}

	const openQ = `
	select id, borrow_uid, user_id, user_name, user_email, book_id, due_date, return_date, price, fine, notified
	from borrows
	where book_id = $1 and user_email = $2 and return_date is null
	order by id
	limit 1
	for update`
	var borrow model.Borrow
	if err = tx.GetContext(ctx, &borrow, openQ, book.ID, user.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.ErrNotBorrowed
		}
		return model.Borrow{}, err
	}

	borrow.Fine = fine.Calculate(borrow.DueDate, now)
	borrow.ReturnDate = sql.NullTime{Time: now, Valid: true}

	const closeQ = `update borrows set return_date = $2, fine = $3 where id = $1`
	if _, err = tx.ExecContext(ctx, closeQ, borrow.ID, now, borrow.Fine); err != nil {
		return model.Borrow{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Borrow{}, err
	}
	return borrow, nil
}

func (r *borrowRepository) HasOpenBorrow(ctx context.Context, userID, bookID int) (bool, error) {
	const q = `
	select count(*) from user_books
	where user_id = $1 and book_id = $2 and returned = false`
	var count int
	if err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *borrowRepository) ListUserBorrows(ctx context.Context, userID int) ([]model.BorrowEntry, error) {
	q, args, err := qb.Select("id", "user_id", "book_id", "book_title", "borrowed_date", "due_date", "returned").
		From(userBooksTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("borrowed_date desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []model.BorrowEntry
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *borrowRepository) ListBorrows(ctx context.Context) ([]model.Borrow, error) {
	q, args, err := qb.Select("id", "borrow_uid", "user_id", "user_name", "user_email", "book_id", "due_date", "return_date", "price", "fine", "notified").
		From(borrowsTableName).
		OrderBy("id desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []model.Borrow
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *borrowRepository) FindOverdueUnnotified(ctx context.Context, cutoff time.Time) ([]model.OverdueBorrow, error) {
	const q = `
	select b.id, b.user_name, b.user_email, bk.title as book_title
	from borrows b
	left join books bk on bk.id = b.book_id
	where b.due_date < $1 and b.return_date is null and b.notified = false`

	var items []model.OverdueBorrow
	if err := r.db.SelectContext(ctx, &items, q, cutoff); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *borrowRepository) MarkNotified(ctx context.Context, borrowID int) error {
	const q = `update borrows set notified = true where id = $1`
	_, err := r.db.ExecContext(ctx, q, borrowID)
	return err
}
