package ports

import (
	"context"

	"github.com/target/dns-manager-ui/internal/domain/model"
)

// UserRepository stores console accounts for the local password authenticator.
type UserRepository interface {
	Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	UpdateRole(ctx context.Context, email string, role string) error
	RecordLogin(ctx context.Context, id string) error
}
