package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/pkg/kafka"
)

type statsRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStatsRepository(db *sqlx.DB, log *zap.Logger) (*statsRepository, error) {
	return &statsRepository{
		db:  db,
		log: log.Named("stats-repo"),
	}, nil
}

func (r *statsRepository) ApplyEvent(ctx context.Context, event kafka.BorrowEvent) error {
	const q = `
	insert into book_stats (book_id, borrow_count, return_count)
	values ($1, $2, $3)
	on conflict (book_id) do update
	set borrow_count = book_stats.borrow_count + $2,
	    return_count = book_stats.return_count + $3`

	borrowed, returned := 1, 0
	if event.Returned {
		borrowed, returned = 0, 1
	}
	_, err := r.db.ExecContext(ctx, q, event.BookID, borrowed, returned)
	return err
}

func (r *statsRepository) GetStats(ctx context.Context) ([]model.BookStat, error) {
	const q = `
	select s.book_id, b.book_uid, b.title, s.borrow_count, s.return_count
	from book_stats s
	join books b on b.id = s.book_id
	order by s.borrow_count desc`

	var stats []model.BookStat
	if err := r.db.SelectContext(ctx, &stats, q); err != nil {
		return nil, err
	}
	return stats, nil
}
