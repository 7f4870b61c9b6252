package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
)

type bookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) (*bookRepository, error) {
	return &bookRepository{
		db:  db,
		log: log.Named("book-repo"),
	}, nil
}

func (r *bookRepository) CreateBook(ctx context.Context, req model.AddBookRequest) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("book_uid", "title", "author", "description", "price", "quantity", "availability").
		Values(uuid.New(), req.Title, req.Author, req.Description, req.Price, req.Quantity, req.Quantity > 0).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) GetBookByUid(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "title", "author", "description", "price", "quantity", "availability").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) ListBooks(ctx context.Context) ([]model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "title", "author", "description", "price", "quantity", "availability").
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) DeleteBook(ctx context.Context, bookUid string) error {
	q, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
