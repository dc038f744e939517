package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

func runRequire(t *testing.T, req domain.Requirement, user *domain.User, tokenErr error) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if user != nil {
		c.Set(userKey, user)
	}
	if tokenErr != nil {
		c.Set(tokenErrKey, tokenErr)
	}

	called := false
	err := Require(req)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequire_Allows(t *testing.T) {
	admin := testUser(t, domain.RoleAdmin)
	called, err := runRequire(t, domain.CanWriteEquipment, admin, nil)
	if err != nil || !called {
		t.Fatalf("expected access, called=%v err=%v", called, err)
	}

	called, err = runRequire(t, domain.Anyone(), nil, nil)
	if err != nil || !called {
		t.Fatalf("anonymous route should pass, called=%v err=%v", called, err)
	}
}

func TestRequire_Forbids(t *testing.T) {
	standard := testUser(t, domain.RoleStandard)
	called, err := runRequire(t, domain.CanWriteEquipment, standard, nil)
	if called || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, called=%v err=%v", called, err)
	}
}

func TestRequire_Unauthenticated(t *testing.T) {
	called, err := runRequire(t, domain.CanReadEquipment, nil, nil)
	if called || !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, called=%v err=%v", called, err)
	}

	_, err = runRequire(t, domain.CanReadEquipment, nil, domain.ErrExpiredToken)
	if !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected the token error to surface, got %v", err)
	}
}
