package auth

import (
	"context"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// JWTKey signs access tokens. Overridden via env in every deployment.
var JWTKey = []byte(envOr("JWT_KEY", "librovault-dev-key"))

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type Claims struct {
	Profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"profile"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// NewToken issues an HS256 access token for the given principal.
func NewToken(email, name, role string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	claims.Profile.Email = email
	claims.Profile.Role = role

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, expiresAt, nil
}

func ParseToken(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return JWTKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type ctxKey int

const authKey ctxKey = iota

type authInfo struct {
	email string
	role  string
}

func SetAuthContext(ctx context.Context, email, role string) context.Context {
	return context.WithValue(ctx, authKey, authInfo{email: email, role: role})
}

func UserEmail(ctx context.Context) string {
	info, _ := ctx.Value(authKey).(authInfo)
	return info.email
}

func IsAdmin(ctx context.Context) bool {
	info, _ := ctx.Value(authKey).(authInfo)
	return info.role == RoleAdmin
}
