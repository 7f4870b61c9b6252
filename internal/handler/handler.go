package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/errs"
	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/pkg/auth"
	"github.com/librovault/library-service/pkg/validate"
)

type Handler struct {
	authSvc   AuthService
	bookSvc   BookService
	borrowSvc BorrowService
	userSvc   UserService
	statsSvc  StatsService
	log       *zap.Logger
}

func New(authSvc AuthService, bookSvc BookService, borrowSvc BorrowService,
	userSvc UserService, statsSvc StatsService, log *zap.Logger) *Handler {
	return &Handler{
		authSvc:   authSvc,
		bookSvc:   bookSvc,
		borrowSvc: borrowSvc,
		userSvc:   userSvc,
		statsSvc:  statsSvc,
		log:       log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig()),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/verify-otp", h.VerifyOTP)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", JwtAuthentication)
	authed.GET("/auth/me", h.Me)

	authed.GET("/books", h.GetBooks)
	authed.POST("/books", h.AddBook)
	authed.DELETE("/books/:bookUid", h.DeleteBook)

	authed.POST("/books/:bookUid/borrow", h.RecordBorrow)
	authed.PUT("/books/:bookUid/return", h.ReturnBorrow)

	authed.GET("/borrows/my", h.MyBorrows)
	authed.GET("/borrows", h.GetBorrows)
	authed.GET("/users", h.GetUsers)
	authed.GET("/stats", h.GetStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authSvc.Register(c.Request().Context(), req); err != nil {
		if errors.Is(err, errs.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, model.MessageResponse{Message: "Verification code sent"})
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	var req model.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authSvc.VerifyOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, errs.ErrOTPInvalid), errors.Is(err, errs.ErrOTPAttempts):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Account verified"})
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.authSvc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) || errors.Is(err, errs.ErrNotVerified) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.authSvc.Me(ctx, auth.UserEmail(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) GetBooks(c echo.Context) error {
	books, err := h.bookSvc.ListBooks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) AddBook(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "no admin")
	}
	var req model.AddBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.bookSvc.AddBook(ctx, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "no admin")
	}
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}

	if err := h.bookSvc.DeleteBook(ctx, bookUid); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, errs.ErrBookNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Book deleted successfully"})
}

func (h *Handler) RecordBorrow(c echo.Context) error {
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.borrowSvc.RecordBorrow(c.Request().Context(), bookUid, req.Email)
	if err != nil {
		return borrowHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: msg})
}

func (h *Handler) ReturnBorrow(c echo.Context) error {
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.borrowSvc.ReturnBorrow(c.Request().Context(), bookUid, req.Email)
	if err != nil {
		return borrowHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: msg})
}

func borrowHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrBookNotFound), errors.Is(err, errs.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrNotAvailable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrAlreadyBorrowed), errors.Is(err, errs.ErrNotBorrowed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) MyBorrows(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.borrowSvc.MyBorrows(ctx, auth.UserEmail(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, errs.ErrUserNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBorrows(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "no admin")
	}
	items, err := h.borrowSvc.ListBorrows(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "no admin")
	}
	users, err := h.userSvc.ListUsers(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "no admin")
	}
	stats, err := h.statsSvc.GetStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
