package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/database"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("already exists")
	ErrInvalid   = errors.New("invalid input")
)

// dbErr maps gorm errors onto the service sentinels.
func dbErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// ErrInvalidCredentials is returned when a login does not match a user.
var ErrInvalidCredentials = errors.New("invalid credentials")
