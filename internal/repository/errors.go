package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("repository: record not found")
	// ErrEmailTaken is returned when an insert or update hits the unique email index.
	ErrEmailTaken = errors.New("repository: email already in use")
	// ErrDuplicateEvent is returned when a webhook event id was already recorded.
	ErrDuplicateEvent = errors.New("repository: webhook event already recorded")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// mapError translates driver errors into repository sentinels. onConflict is
// returned for unique violations.
func mapError(err error, onConflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case onConflict != nil && isUniqueViolation(err):
		return onConflict
	default:
		return err
	}
}
