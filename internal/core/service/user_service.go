package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// UserService administers identities. All operations require MASTER.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewUserService(users ports.UserRepository, log zerolog.Logger, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{users: users, log: log, now: o.now}
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.CanManageUsers); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if err := domain.Authorize(actor, domain.CanManageUsers); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateRoles replaces the role set of user id. A MASTER cannot drop MASTER
// from their own account, which could leave the system without one.
func (s *UserService) UpdateRoles(ctx context.Context, actor *domain.User, id string, roles []domain.Role) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.CanManageUsers); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := user.Roles()
	if err := user.SetRoles(roles); err != nil {
		return nil, err
	}
	if user.ID == actor.ID && !user.IsMaster() {
		s.log.Warn().Str("user_id", user.ID).Msg("self lockout rejected")
		return nil, domain.ErrSelfLockout
	}

	user.Touch(s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Strs("from", roleNames(before)).
		Strs("to", roleNames(user.Roles())).
		Str("by", domain.AttributionOf(actor)).
		Msg("user roles updated")
	return user, nil
}
