package errs

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBookNotFound = errors.New("Book not found")
	ErrUserNotFound = errors.New("User Not Found")

	ErrNotAvailable    = errors.New("Book is Not available")
	ErrAlreadyBorrowed = errors.New("Book is already borrowed")
	ErrNotBorrowed     = errors.New("Book is not borrowed")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrOTPInvalid         = errors.New("invalid or expired verification code")
	ErrOTPAttempts        = errors.New("too many verification attempts")
)
