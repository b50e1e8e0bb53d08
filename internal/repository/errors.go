package repository

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyClosed  = errors.New("trade already closed")
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrExitRequired and ErrExitOnOpen reject updates that would leave
	// status and exit_price disagreeing.
	ErrExitRequired = errors.New("exit_price is required for a CLOSED trade")
	ErrExitOnOpen   = errors.New("exit_price can only be set on a CLOSED trade")
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation matches both the SQLite and Postgres wording.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
