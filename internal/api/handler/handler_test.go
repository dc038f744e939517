package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

type stubAuthService struct {
	registerFn func(ctx context.Context, actor *domain.User, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	// authErr is returned by Authenticate for every token.
	authErr error
}

func (s *stubAuthService) Register(ctx context.Context, actor *domain.User, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, actor, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return nil, domain.ErrInvalidToken
}

type stubEquipmentService struct {
	createFn func(ctx context.Context, actor *domain.User, in ports.CreateEquipmentInput) (*domain.Equipment, error)
	updateFn func(ctx context.Context, actor *domain.User, id string, in ports.UpdateEquipmentInput) (*domain.Equipment, error)
	listFn   func(ctx context.Context, actor *domain.User, f ports.EquipmentFilter) ([]*domain.Equipment, error)
	items    map[string]*domain.Equipment
	deleted  []string
}

func (s *stubEquipmentService) Create(ctx context.Context, actor *domain.User, in ports.CreateEquipmentInput) (*domain.Equipment, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubEquipmentService) Get(_ context.Context, _ *domain.User, id string) (*domain.Equipment, error) {
	if e, ok := s.items[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEquipmentNotFound
}

func (s *stubEquipmentService) GetBySerialNumber(_ context.Context, _ *domain.User, serial string) (*domain.Equipment, error) {
	for _, e := range s.items {
		if e.SerialNumber() == serial {
			return e, nil
		}
	}
	return nil, domain.ErrEquipmentNotFound
}

func (s *stubEquipmentService) List(ctx context.Context, actor *domain.User, f ports.EquipmentFilter) ([]*domain.Equipment, error) {
	return s.listFn(ctx, actor, f)
}

func (s *stubEquipmentService) Update(ctx context.Context, actor *domain.User, id string, in ports.UpdateEquipmentInput) (*domain.Equipment, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubEquipmentService) Delete(_ context.Context, _ *domain.User, id string) error {
	if _, ok := s.items[id]; !ok {
		return domain.ErrEquipmentNotFound
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func sampleEquipment(t *testing.T) *domain.Equipment {
	t.Helper()
	desc := "Cordless"
	e, err := domain.NewEquipment("Drill", "SN-1", &desc, "admin@example.com", testNow)
	if err != nil {
		t.Fatalf("NewEquipment: %v", err)
	}
	e.ID = "eq-1"
	return e
}
