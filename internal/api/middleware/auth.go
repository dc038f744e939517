package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

const (
	userKey      = "auth.user"
	tokenErrKey  = "auth.token_error"
	bearerPrefix = "bearer"
)

// Authenticator resolves a bearer token to its current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate resolves the Authorization header into the acting user.
// A missing header leaves the request anonymous. A bad or expired token also
// leaves it anonymous but remembers why, so Require can report it.
func Authenticate(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) || strings.TrimSpace(parts[1]) == "" {
				c.Set(tokenErrKey, domain.ErrInvalidToken)
				return next(c)
			}

			user, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					return err
				}
				c.Set(tokenErrKey, err)
				return next(c)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userKey).(*domain.User)
	return u
}

// TokenError returns why a presented bearer token was rejected, or nil when
// no token was sent or it was accepted.
func TokenError(c echo.Context) error {
	err, _ := c.Get(tokenErrKey).(error)
	return err
}
