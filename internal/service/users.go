package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/dns-manager-ui/internal/domain/model"
	apperrors "github.com/target/dns-manager-ui/internal/errors"
	"github.com/target/dns-manager-ui/internal/ports"
)

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher func(password string) (string, error)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Repo   ports.UserRepository
	Hasher PasswordHasher
	Logger *slog.Logger
}

// UserService manages local console accounts (AUTH_MODE=password).
type UserService struct {
	repo   ports.UserRepository
	hash   PasswordHasher
	logger *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	if opts.Repo == nil {
		panic("UserRepository is required")
	}
	if opts.Hasher == nil {
		panic("PasswordHasher is required")
	}
	return &UserService{repo: opts.Repo, hash: opts.Hasher, logger: opts.Logger}
}

// Create validates and stores a new account.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "validate request")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	req.PasswordHash = hash
	req.Password = ""

	user, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)
	}
	return user, nil
}

// SetPassword replaces the password of the account with the given email.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	email = model.NormalizeEmail(email)
	if err := model.ValidateEmail(email); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "validate email")
	}
	if err := model.ValidatePassword(password); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "validate password")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetRole changes the role of the account with the given email.
func (s *UserService) SetRole(ctx context.Context, email, role string) error {
	email = model.NormalizeEmail(email)
	if err := model.ValidateEmail(email); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "validate email")
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !model.ValidUserRole(role) {
		return apperrors.ValidationField("role", "role must be one of admin, user, guest")
	}
	if err := s.repo.UpdateRole(ctx, email, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// List returns accounts ordered by email.
func (s *UserService) List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	users, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
