package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
)

// actor returns the acting user set by middleware.Authenticate, or nil.
// Handlers pass it to services explicitly.
func actor(c echo.Context) *domain.User {
	return middleware.CurrentUser(c)
}

// unauthenticated swaps a generic authentication failure of an anonymous
// request for the reason its bearer token was rejected, if one was sent.
func unauthenticated(c echo.Context, err error) error {
	if !errors.Is(err, domain.ErrUnauthenticated) || actor(c) != nil {
		return err
	}
	if tokenErr := middleware.TokenError(c); tokenErr != nil {
		return tokenErr
	}
	return err
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
