package model

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Book struct {
	ID           int    `json:"-" db:"id"`
	BookUid      string `json:"bookUid" db:"book_uid"`
	Title        string `json:"title" db:"title"`
	Author       string `json:"author" db:"author"`
	Description  string `json:"description" db:"description"`
	Price        int    `json:"price" db:"price"`
	Quantity     int    `json:"quantity" db:"quantity"`
	Availability bool   `json:"availability" db:"availability"`
}

type User struct {
	ID           int          `json:"-" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Role         Role         `json:"role" db:"role"`
	Verified     bool         `json:"verified" db:"verified"`
	Otp          sql.NullString `json:"-" db:"otp"`
	OtpExpiresAt sql.NullTime `json:"-" db:"otp_expires_at"`
	OtpAttempts  int          `json:"-" db:"otp_attempts"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}

// BorrowEntry is one loan on a user's profile, the per-user view of a borrow.
type BorrowEntry struct {
	ID           int       `json:"-" db:"id"`
	UserID       int       `json:"-" db:"user_id"`
	BookID       int       `json:"-" db:"book_id"`
	BookTitle    string    `json:"bookTitle" db:"book_title"`
	BorrowedDate time.Time `json:"borrowedDate" db:"borrowed_date"`
	DueDate      time.Time `json:"dueDate" db:"due_date"`
	Returned     bool      `json:"returned" db:"returned"`
}

// Borrow is the ledger record of a loan transaction. Created once per borrow,
// closed once on return, never deleted.
type Borrow struct {
	ID         int          `json:"-" db:"id"`
	BorrowUid  string       `json:"borrowUid" db:"borrow_uid"`
	UserID     int          `json:"-" db:"user_id"`
	UserName   string       `json:"userName" db:"user_name"`
	UserEmail  string       `json:"userEmail" db:"user_email"`
	BookID     int          `json:"-" db:"book_id"`
	DueDate    time.Time    `json:"dueDate" db:"due_date"`
	ReturnDate sql.NullTime `json:"returnDate" db:"return_date"`
	Price      int          `json:"price" db:"price"`
	Fine       int          `json:"fine" db:"fine"`
	Notified   bool         `json:"-" db:"notified"`
}

// OverdueBorrow is the notifier's view of an open, overdue ledger entry. The
// book title comes from a left join and is null when the book is gone.
type OverdueBorrow struct {
	BorrowID  int            `db:"id"`
	UserName  string         `db:"user_name"`
	UserEmail string         `db:"user_email"`
	BookTitle sql.NullString `db:"book_title"`
}

type BookStat struct {
	BookID      int    `json:"-" db:"book_id"`
	BookUid     string `json:"bookUid" db:"book_uid"`
	Title       string `json:"title" db:"title"`
	BorrowCount int    `json:"borrowCount" db:"borrow_count"`
	ReturnCount int    `json:"returnCount" db:"return_count"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

type AddBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       int    `json:"price" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

type BorrowRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
