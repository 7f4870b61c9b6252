package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
)

type userRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewUserRepository(db *sqlx.DB, log *zap.Logger) (*userRepository, error) {
	return &userRepository{
		db:  db,
		log: log.Named("user-repo"),
	}, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	q, args, err := qb.Insert(usersTableName).
		Columns("name", "email", "password_hash", "role", "otp", "otp_expires_at").
		Values(user.Name, user.Email, user.PasswordHash, user.Role, user.Otp, user.OtpExpiresAt).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var created model.User
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.User{}, errs.ErrEmailTaken
		}
		r.log.Error("CreateUser", zap.String("q", q))
		return model.User{}, err
	}
	return created, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	q, args, err := qb.Select("*").
		From(usersTableName).
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *userRepository) SetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error {
	q, args, err := qb.Update(usersTableName).
		Set("otp", otp).
		Set("otp_expires_at", expiresAt).
		Set("otp_attempts", 0).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *userRepository) BumpOTPAttempts(ctx context.Context, email string) error {
	q := `update users set otp_attempts = otp_attempts + 1 where email = $1`
	_, err := r.db.ExecContext(ctx, q, email)
	return err
}

func (r *userRepository) VerifyUser(ctx context.Context, email string) error {
	q, args, err := qb.Update(usersTableName).
		Set("verified", true).
		Set("otp", nil).
		Set("otp_expires_at", nil).
		Set("otp_attempts", 0).
		Where(sq.Eq{"email": email}).
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

func (r *userRepository) ListVerifiedUsers(ctx context.Context) ([]model.User, error) {
	q, args, err := qb.Select("*").
		From(usersTableName).
		Where(sq.Eq{"verified": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []model.User
	if err := r.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, err
	}
	return users, nil
}
