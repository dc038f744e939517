package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

// AuthService implements registration, login and token resolution.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenManager
	log    zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenManager, log zerolog.Logger, opts ...Option) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    o.now,
	}
}

// Register creates an account. Anyone may register a STANDARD account;
// asking for any other role requires a MASTER actor.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, in ports.RegisterInput) (*domain.User, error) {
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if privileged(in.Roles) {
		if err := domain.Authorize(actor, domain.CanManageUsers); err != nil {
			return nil, err
		}
	}

	email := domain.NormalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user, err := domain.NewUser(in.DisplayName, email, hash, in.Roles, s.now())
	if err != nil {
		return nil, err
	}
	user.ID = uuid.NewString()

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Strs("roles", roleNames(user.Roles())).
		Str("by", domain.AttributionOf(actor)).
		Msg("user registered")
	return user, nil
}

// Login never reveals whether the email exists: unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend the same bcrypt time as a real comparison.
			s.hasher.Verify(password, s.dummy())
			s.log.Warn().Str("email", email).Msg("login failed")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn().Str("email", email).Msg("login failed")
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate resolves a bearer token to the current state of its user.
// Roles are read fresh on every call so revocations apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// MasterAccount describes the bootstrap MASTER user.
type MasterAccount struct {
	DisplayName string
	Email       string
	Password    string
}

// EnsureMaster creates the bootstrap MASTER account when its email is not
// registered yet. An existing account is left untouched.
func (s *AuthService) EnsureMaster(ctx context.Context, acc MasterAccount) (bool, error) {
	email := domain.NormalizeEmail(acc.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsMaster() {
			s.log.Warn().Str("email", email).Msg("bootstrap account exists without MASTER role")
		}
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("ensure master: %w", err)
	}

	if err := validatePassword(acc.Password); err != nil {
		return false, err
	}
	hash, err := s.hasher.Hash(acc.Password)
	if err != nil {
		return false, fmt.Errorf("ensure master: hash password: %w", err)
	}
	user, err := domain.NewUser(acc.DisplayName, email, hash, []domain.Role{domain.RoleMaster}, s.now())
	if err != nil {
		return false, err
	}
	user.ID = uuid.NewString()

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return false, nil
		}
		return false, err
	}
	s.log.Info().Str("user_id", user.ID).Str("email", email).Msg("master account created")
	return true, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Error().Err(err).Msg("failed to prepare dummy hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func validatePassword(p string) error {
	if strings.TrimSpace(p) == "" || len(p) < minPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(p) > maxPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

func privileged(roles []domain.Role) bool {
	for _, r := range roles {
		if r != domain.RoleStandard {
			return true
		}
	}
	return false
}

func roleNames(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
