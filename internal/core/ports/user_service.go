package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserService exposes identity administration. Every call takes the acting
// identity explicitly.
type UserService interface {
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	List(ctx context.Context, actor *domain.User) ([]*domain.User, error)
	UpdateRoles(ctx context.Context, actor *domain.User, id string, roles []domain.Role) (*domain.User, error)
}
