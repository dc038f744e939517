package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

type stubAuthenticator struct {
	users map[string]*domain.User
	err   error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, domain.ErrInvalidToken
}

func testUser(t *testing.T, roles ...domain.Role) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Alice", "alice@example.com", "hash", roles, time.Now())
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return u
}

func runAuth(t *testing.T, auth Authenticator, header string) (*domain.User, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *domain.User
	called := false
	err := Authenticate(auth)(func(c echo.Context) error {
		called = true
		seen = CurrentUser(c)
		return nil
	})(c)
	if err == nil {
		err = TokenError(c)
	}
	return seen, called, err
}

func TestAuthenticate_ValidToken(t *testing.T) {
	alice := testUser(t, domain.RoleAdmin)
	auth := &stubAuthenticator{users: map[string]*domain.User{"good": alice}}

	user, called, err := runAuth(t, auth, "Bearer good")
	if !called || err != nil {
		t.Fatalf("expected next with no error, called=%v err=%v", called, err)
	}
	if user != alice {
		t.Fatalf("expected current user to be set")
	}

	user, _, _ = runAuth(t, auth, "bearer good")
	if user != alice {
		t.Fatalf("scheme should be case-insensitive")
	}
}

func TestAuthenticate_MissingHeaderIsAnonymous(t *testing.T) {
	user, called, err := runAuth(t, &stubAuthenticator{}, "")
	if !called || err != nil || user != nil {
		t.Fatalf("expected anonymous pass-through, called=%v err=%v user=%v", called, err, user)
	}
}

func TestAuthenticate_BadTokensAreRemembered(t *testing.T) {
	cases := map[string]struct {
		auth   *stubAuthenticator
		header string
		want   error
	}{
		"wrong scheme":  {&stubAuthenticator{}, "Token abc", domain.ErrInvalidToken},
		"empty bearer":  {&stubAuthenticator{}, "Bearer ", domain.ErrInvalidToken},
		"unknown token": {&stubAuthenticator{}, "Bearer nope", domain.ErrInvalidToken},
		"expired":       {&stubAuthenticator{err: domain.ErrExpiredToken}, "Bearer old", domain.ErrExpiredToken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			user, called, err := runAuth(t, tc.auth, tc.header)
			if !called || user != nil {
				t.Fatalf("expected anonymous pass-through, called=%v user=%v", called, user)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthenticate_StorageFailureAborts(t *testing.T) {
	storage := errors.New("mongo down")
	_, called, err := runAuth(t, &stubAuthenticator{err: storage}, "Bearer x")
	if called {
		t.Fatalf("next must not run on storage failure")
	}
	if !errors.Is(err, storage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
