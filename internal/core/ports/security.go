package ports

import (
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenManager interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
	Validate(token string) (subject string, err error)
}
