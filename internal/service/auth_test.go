package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
	mock_repository "github.com/librovault/library-service/internal/repository/mocks"
	"github.com/librovault/library-service/pkg/mail"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mock_repository.NewMockUserRepository(ctrl)
	sender := &recordingSender{}

	req := model.RegisterRequest{Name: "amit", Email: "amit@mail.com", Password: "secret-pw"}

	var created model.User
	users.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			created = u
			return u, nil
		})

	started := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	svc := NewAuthService(users, sender, zap.NewNop()).
		WithClock(func() time.Time { return started })

	require.NoError(t, svc.Register(context.Background(), req))

	require.Equal(t, req.Email, created.Email)
	require.Equal(t, model.RoleUser, created.Role)
	require.False(t, created.Verified)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(req.Password)))
	require.True(t, created.Otp.Valid)
	require.Len(t, created.Otp.String, 5)
	require.Equal(t, started.Add(otpTTL), created.OtpExpiresAt.Time)

	require.Len(t, sender.sent, 1)
	require.Equal(t, req.Email, sender.sent[0].To)
	require.Contains(t, sender.sent[0].HTML, created.Otp.String)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mock_repository.NewMockUserRepository(ctrl)
	users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(model.User{}, errs.ErrEmailTaken)
	users.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(model.User{Verified: true}, nil)

	sender := &recordingSender{}
	svc := NewAuthService(users, sender, zap.NewNop())

	err := svc.Register(context.Background(), model.RegisterRequest{
		Name: "amit", Email: "amit@mail.com", Password: "secret-pw",
	})
	require.ErrorIs(t, err, errs.ErrEmailTaken)
	require.Empty(t, sender.sent)
}

func TestAuthService_Register_PendingGetsFreshCode(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	users := mock_repository.NewMockUserRepository(ctrl)
	users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(model.User{}, errs.ErrEmailTaken)
	users.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(model.User{Verified: false}, nil)

	var otp string
	users.EXPECT().
		SetOTP(gomock.Any(), "amit@mail.com", gomock.Any(), started.Add(otpTTL)).
		DoAndReturn(func(_ context.Context, _ string, code string, _ time.Time) error {
			otp = code
			return nil
		})

	sender := &recordingSender{}
	svc := NewAuthService(users, sender, zap.NewNop()).
		WithClock(func() time.Time { return started })

	err := svc.Register(context.Background(), model.RegisterRequest{
		Name: "amit", Email: "amit@mail.com", Password: "secret-pw",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].HTML, otp)
}

func TestAuthService_VerifyOTP(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	pending := func() model.User {
		return model.User{
			Email:        "amit@mail.com",
			Otp:          sql.NullString{String: "12345", Valid: true},
			OtpExpiresAt: sql.NullTime{Time: now.Add(5 * time.Minute), Valid: true},
		}
	}

	tests := []struct {
		name    string
		otp     string
		prepare func(m *mock_repository.MockUserRepository)
		wantErr error
	}{
		{
			name: "ok",
			otp:  "12345",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(pending(), nil)
				m.EXPECT().VerifyUser(gomock.Any(), "amit@mail.com").Return(nil)
			},
		},
		{
			name: "already verified is a no-op",
			otp:  "99999",
			prepare: func(m *mock_repository.MockUserRepository) {
				user := pending()
				user.Verified = true
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(user, nil)
			},
		},
		{
			name: "wrong code bumps attempts",
			otp:  "54321",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(pending(), nil)
				m.EXPECT().BumpOTPAttempts(gomock.Any(), "amit@mail.com").Return(nil)
			},
			wantErr: errs.ErrOTPInvalid,
		},
		{
			name: "expired code",
			otp:  "12345",
			prepare: func(m *mock_repository.MockUserRepository) {
				user := pending()
				user.OtpExpiresAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(user, nil)
				m.EXPECT().BumpOTPAttempts(gomock.Any(), "amit@mail.com").Return(nil)
			},
			wantErr: errs.ErrOTPInvalid,
		},
		{
			name: "attempts exhausted",
			otp:  "12345",
			prepare: func(m *mock_repository.MockUserRepository) {
				user := pending()
				user.OtpAttempts = maxOTPAttempts
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(user, nil)
			},
			wantErr: errs.ErrOTPAttempts,
		},
		{
			name: "unknown user",
			otp:  "12345",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "amit@mail.com").Return(model.User{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrUserNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			users := mock_repository.NewMockUserRepository(ctrl)
			tt.prepare(users)

			svc := NewAuthService(users, &recordingSender{}, zap.NewNop()).
				WithClock(func() time.Time { return now })

			err := svc.VerifyOTP(context.Background(), "amit@mail.com", tt.otp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	verified := model.User{
		Name:         "amit",
		Email:        "amit@mail.com",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Verified:     true,
	}

	tests := []struct {
		name     string
		password string
		prepare  func(m *mock_repository.MockUserRepository)
		wantErr  error
	}{
		{
			name:     "ok",
			password: "secret-pw",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), verified.Email).Return(verified, nil)
			},
		},
		{
			name:     "wrong password",
			password: "not-the-pw",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), verified.Email).Return(verified, nil)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret-pw",
			prepare: func(m *mock_repository.MockUserRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), verified.Email).Return(model.User{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:     "unverified account",
			password: "secret-pw",
			prepare: func(m *mock_repository.MockUserRepository) {
				user := verified
				user.Verified = false
				m.EXPECT().GetUserByEmail(gomock.Any(), verified.Email).Return(user, nil)
			},
			wantErr: errs.ErrNotVerified,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			users := mock_repository.NewMockUserRepository(ctrl)
			tt.prepare(users)

			svc := NewAuthService(users, &recordingSender{}, zap.NewNop())
			resp, err := svc.Login(context.Background(), verified.Email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, resp.AccessToken)
			require.Greater(t, resp.ExpiresIn, int(time.Now().Unix()))
		})
	}
}
