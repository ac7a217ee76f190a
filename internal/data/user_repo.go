package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/dns-manager-ui/internal/data/pgxutil"
	"github.com/target/dns-manager-ui/internal/domain/model"
	apperrors "github.com/target/dns-manager-ui/internal/errors"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user already exists")
)

const userColumns = `id, email, password_hash, first_name, last_name, role, disabled, last_login_at, created_at, updated_at`

// UserRepo provides database operations for console accounts.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Create inserts a new account. req.PasswordHash must already be set.
func (r *UserRepo) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if req.PasswordHash == "" {
		return nil, errors.New("password hash is required")
	}
	req.Normalize()

	now := r.timeProvider.Now().UTC()
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (email, password_hash, first_name, last_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+userColumns,
			req.Email, req.PasswordHash, req.FirstName, req.LastName, req.Role, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, mapUserWriteErr(err)
	}
	return &out, nil
}

// GetByEmail looks an account up by its normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, model.NormalizeEmail(email))
		if err != nil {
			return err
		}
		defer rows.Close()
		u, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// List returns accounts ordered by email.
func (r *UserRepo) List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdatePassword replaces the stored hash for the account.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("password hash is required")
	}
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1`,
		model.NormalizeEmail(email), passwordHash, r.timeProvider.Now().UTC())
}

// UpdateRole changes the account's console role.
func (r *UserRepo) UpdateRole(ctx context.Context, email, role string) error {
	if !model.ValidUserRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return r.execOne(ctx, `UPDATE users SET role = $2, updated_at = $3 WHERE email = $1`,
		model.NormalizeEmail(email), role, r.timeProvider.Now().UTC())
}

// RecordLogin stamps last_login_at after a successful sign-in.
func (r *UserRepo) RecordLogin(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, r.timeProvider.Now().UTC())
}

func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	var tag pgconn.CommandTag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		tag, err = conn.Exec(ctx, q, args...)
		return err
	})
	if err != nil {
		return mapUserWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrap(ErrUserNotFound, apperrors.ErrCodeNotFound, "no account with this email")
	}
	return nil
}

func mapUserWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperrors.Wrap(ErrUserExists, apperrors.ErrCodeConflict, "an account with this email already exists")
	}
	return apperrors.MapDBError(err)
}
