package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Property errors
	ErrPropertyNotFound = errors.New("property not found")
	ErrTooManyImages    = errors.New("property already has the maximum number of images")

	// Review errors
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists for this property")
	ErrDuplicateReport = errors.New("review already reported by this user")
	ErrReportNotFound  = errors.New("report not found")
)

// isUniqueViolation reports whether err is a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
