package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/repository"
	"github.com/librovault/library-service/pkg/auth"
	"github.com/librovault/library-service/pkg/mail"
)

const (
	otpTTL         = 15 * time.Minute
	maxOTPAttempts = 5
	tokenTTL       = 24 * time.Hour
)

type AuthService struct {
	users  repository.UserRepository
	sender mail.Sender
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, sender mail.Sender, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates an unverified account and emails a one-time code valid
// for 15 minutes.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	otp, err := generateOTP()
	if err != nil {
		return errors.Wrap(err, "generate otp")
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Otp:          sql.NullString{String: otp, Valid: true},
		OtpExpiresAt: sql.NullTime{Time: s.now().Add(otpTTL), Valid: true},
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, errs.ErrEmailTaken) {
			return err
		}
		// a pending registration gets a fresh code instead of an error
		existing, err := s.users.GetUserByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if existing.Verified {
			return errs.ErrEmailTaken
		}
		if err := s.users.SetOTP(ctx, req.Email, otp, s.now().Add(otpTTL)); err != nil {
			return err
		}
	}

	msg := mail.Message{
		To:      req.Email,
		Subject: "LibroVault Verification Code",
		HTML:    mail.VerificationOTPTemplate(otp),
	}
	if err := s.sender.Send(msg); err != nil {
		return errors.Wrap(err, "send verification email")
	}
	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUserNotFound
		}
		return err
	}
	if user.Verified {
		return nil
	}
	if user.OtpAttempts >= maxOTPAttempts {
		return errs.ErrOTPAttempts
	}
	if !user.Otp.Valid || !user.OtpExpiresAt.Valid ||
		s.now().After(user.OtpExpiresAt.Time) || user.Otp.String != otp {
		if err := s.users.BumpOTPAttempts(ctx, email); err != nil {
			s.log.Warn("bump otp attempts", zap.Error(err))
		}
		return errs.ErrOTPInvalid
	}
	return s.users.VerifyUser(ctx, email)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.AuthResponse{}, errs.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	if !user.Verified {
		return model.AuthResponse{}, errs.ErrNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.AuthResponse{}, errs.ErrInvalidCredentials
	}

	token, expiresAt, err := auth.NewToken(user.Email, user.Name, string(user.Role), tokenTTL)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int(expiresAt.Unix()),
	}, nil
}

func (s *AuthService) Me(ctx context.Context, email string) (model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+10000), nil
}
