package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("token already used")
	// ErrRaceLost means another request claimed the token first.
	ErrRaceLost    = fmt.Errorf("lost claim race: %w", ErrAlreadyUsed)
	ErrSignature   = errors.New("payment notification signature invalid")
	ErrPersistence = errors.New("persistence failure")
	ErrDeclined    = errors.New("payment declined")
	ErrUnavailable = errors.New("payment provider unavailable")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
