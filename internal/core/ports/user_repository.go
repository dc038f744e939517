package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserRepository persists identities. Emails are stored normalized and are
// unique; Create returns domain.ErrUserExists on conflict.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}
