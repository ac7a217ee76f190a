package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField pulls the column list out of "Key (email)=(a@b.com) already exists."
// Expression indexes report it as "Key (lower(email))=...".
var reKeyField = regexp.MustCompile(`Key \((?:[a-z_]+\()?([a-z_]+)\)?\)=`)

// MapDBError classifies a database error. Errors it does not recognize are
// returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "The database did not answer in time. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists. Please choose a different one.",
			Field:   violatedField(pgErr),
			Cause:   err,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "This field has an invalid value.",
			Field:   violatedField(pgErr),
			Cause:   err,
		}
	case pgerrcode.ForeignKeyViolation:
		return Wrap(err, ErrCodeForeignKey, "Cannot complete operation because this item is in use.")
	default:
		return Wrap(err, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

// violatedField names the column behind a constraint error: the column
// metadata first, then the Detail text, then the constraint name
// ("users_email_key", "users_role_check").
func violatedField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}

	parts := strings.Split(pgErr.ConstraintName, "_")
	if len(parts) != 3 {
		// Multi-column and unnamed constraints are ambiguous.
		return ""
	}
	switch parts[2] {
	case "key", "check", "unique":
		return parts[1]
	}
	return ""
}
