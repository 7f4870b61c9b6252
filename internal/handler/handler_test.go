package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/handler"
	service_mocks "github.com/librovault/library-service/internal/handler/mocks"
	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/pkg/validate"
)

func newTestRouter(t *testing.T) (*echo.Echo, *handler.Handler, *mocks) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	m := &mocks{
		auth:   service_mocks.NewMockAuthService(c),
		book:   service_mocks.NewMockBookService(c),
		borrow: service_mocks.NewMockBorrowService(c),
		user:   service_mocks.NewMockUserService(c),
		stats:  service_mocks.NewMockStatsService(c),
	}
	log := zap.NewExample().Named("test")
	h := handler.New(m.auth, m.book, m.borrow, m.user, m.stats, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	return e, h, m
}

type mocks struct {
	auth   *service_mocks.MockAuthService
	book   *service_mocks.MockBookService
	borrow *service_mocks.MockBorrowService
	user   *service_mocks.MockUserService
	stats  *service_mocks.MockStatsService
}

func TestHandler_RecordBorrow(t *testing.T) {
	t.Parallel()
	type input struct {
		bookUid string
		body    string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					RecordBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("Book borrowed successfully", nil)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book borrowed successfully"}`,
			},
			wantErr: false,
		},
		{
			name:         "err. invalid email",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"not-an-email"}`,
			},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
			wantErr: true,
		},
		{
			name: "err. book not found",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					RecordBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errs.ErrBookNotFound)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"Book not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. no copies",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					RecordBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errs.ErrNotAvailable)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Book is Not available"}`,
			},
			wantErr: true,
		},
		{
			name: "err. already borrowed",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					RecordBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errs.ErrAlreadyBorrowed)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"Book is already borrowed"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					RecordBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errors.New("db internal"))
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, m := newTestRouter(t)
			e.POST("/books/:bookUid/borrow", h.RecordBorrow)

			tt.mockBehavior(m.borrow, tt.input)

			r := httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/books/%s/borrow", tt.input.bookUid), strings.NewReader(tt.input.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_ReturnBorrow(t *testing.T) {
	t.Parallel()
	type input struct {
		bookUid string
		body    string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok. on time",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					ReturnBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("Book returned successfully. The total charges are ₹220", nil)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book returned successfully. The total charges are ₹220"}`,
			},
			wantErr: false,
		},
		{
			name: "ok. with fine",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					ReturnBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("Book returned successfully. The total charges, including fine, are ₹280", nil)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book returned successfully. The total charges, including fine, are ₹280"}`,
			},
			wantErr: false,
		},
		{
			name: "err. not borrowed",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					ReturnBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errs.ErrNotBorrowed)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"Book is not borrowed"}`,
			},
			wantErr: true,
		},
		{
			name: "err. user not found",
			mockBehavior: func(r *service_mocks.MockBorrowService, req input) {
				r.EXPECT().
					ReturnBorrow(gomock.Any(), req.bookUid, "amit@mail.com").
					Return("", errs.ErrUserNotFound)
			},
			input: input{
				bookUid: "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
				body:    `{"email":"amit@mail.com"}`,
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"User Not Found"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, m := newTestRouter(t)
			e.PUT("/books/:bookUid/return", h.ReturnBorrow)

			tt.mockBehavior(m.borrow, tt.input)

			r := httptest.NewRequest(http.MethodPut,
				fmt.Sprintf("/books/%s/return", tt.input.bookUid), strings.NewReader(tt.input.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		body         string
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(gomock.Any(), "amit@mail.com", "secret-pw").
					Return(model.AuthResponse{AccessToken: "token", ExpiresIn: 1710966000}, nil)
			},
			body: `{"email":"amit@mail.com","password":"secret-pw"}`,
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"accessToken":"token","expiresIn":1710966000}`,
			},
			wantErr: false,
		},
		{
			name: "err. bad credentials",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(gomock.Any(), "amit@mail.com", "wrong").
					Return(model.AuthResponse{}, errs.ErrInvalidCredentials)
			},
			body: `{"email":"amit@mail.com","password":"wrong"}`,
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"Invalid credentials"}`,
			},
			wantErr: true,
		},
		{
			name: "err. not verified",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(gomock.Any(), "amit@mail.com", "secret-pw").
					Return(model.AuthResponse{}, errs.ErrNotVerified)
			},
			body: `{"email":"amit@mail.com","password":"secret-pw"}`,
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"account is not verified"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. missing password",
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			body:         `{"email":"amit@mail.com"}`,
			response: response{
				expectedCode: http.StatusBadRequest,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, m := newTestRouter(t)
			e.POST("/auth/login", h.Login)

			tt.mockBehavior(m.auth)

			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_AdminOnly(t *testing.T) {
	t.Parallel()

	e, h, _ := newTestRouter(t)
	e.GET("/stats", h.GetStats)
	e.GET("/users", h.GetUsers)
	e.GET("/borrows", h.GetBorrows)

	// no auth info in the request context, so the admin check fails
	for _, path := range []string{"/stats", "/users", "/borrows"} {
		r := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
