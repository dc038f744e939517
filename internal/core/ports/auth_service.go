package ports

import (
	"context"
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// RegisterInput carries a new account. Roles may be empty for a default
// STANDARD account.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
	Roles       []domain.Role
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService covers account creation, login and token resolution. actor
// is the authenticated caller, or nil for anonymous requests.
type AuthService interface {
	Register(ctx context.Context, actor *domain.User, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
