package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const adminSubject = "admin"

// HashPassword returns a bcrypt hash for the admin password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

type AdminAuthenticator struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAdminAuthenticator(passwordHash, secret string, ttl time.Duration) *AdminAuthenticator {
	return &AdminAuthenticator{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Login checks the password and returns a signed session token and its expiry.
func (a *AdminAuthenticator) Login(password string) (string, time.Time, error) {
	if len(a.passwordHash) == 0 || len(a.secret) == 0 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now().UTC()
	exp := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Validate checks an admin session token.
func (a *AdminAuthenticator) Validate(raw string) error {
	if len(a.secret) == 0 {
		return ErrInvalidCredentials
	}
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalidCredentials
	}
	return nil
}
