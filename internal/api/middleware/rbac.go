package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/pkg/metrics"
)

// Require enforces req before the handler runs. Denials are returned as
// domain errors for the central error handler to render.
func Require(req domain.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := domain.Authorize(CurrentUser(c), req)
			if err == nil {
				return next(c)
			}

			if errors.Is(err, domain.ErrUnauthenticated) {
				metrics.AuthorizationDeniedTotal.WithLabelValues("unauthenticated").Inc()
				if tokenErr := TokenError(c); tokenErr != nil {
					return tokenErr
				}
				return err
			}
			metrics.AuthorizationDeniedTotal.WithLabelValues("forbidden").Inc()
			return err
		}
	}
}
