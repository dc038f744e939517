package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// maxUpdateAttempts bounds the retries of an update that keeps losing races.
const maxUpdateAttempts = 3

// EquipmentService implements the equipment use cases. Timestamps and
// attribution are decided here and passed into the domain explicitly.
type EquipmentService struct {
	repo   ports.EquipmentRepository
	lock   ports.SerialLock
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewEquipmentService wires the service. lock and events may be nil.
func NewEquipmentService(
	repo ports.EquipmentRepository,
	lock ports.SerialLock,
	events ports.EventPublisher,
	log zerolog.Logger,
	opts ...Option,
) *EquipmentService {
	o := buildOptions(opts)
	return &EquipmentService{
		repo:   repo,
		lock:   lock,
		events: events,
		log:    log,
		now:    o.now,
	}
}

func (s *EquipmentService) Create(ctx context.Context, actor *domain.User, in ports.CreateEquipmentInput) (*domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.CanWriteEquipment); err != nil {
		return nil, err
	}

	by := domain.AttributionOf(actor)
	e, err := domain.NewEquipment(in.Name, in.SerialNumber, in.Description, by, s.now())
	if err != nil {
		return nil, err
	}

	release, err := s.claimSerial(ctx, e.SerialNumber())
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureSerialFree(ctx, e.SerialNumber(), ""); err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	if err := s.repo.Create(ctx, e); err != nil {
		if !errors.Is(err, domain.ErrSerialNumberInUse) {
			s.log.Error().Err(err).Str("serial_number", e.SerialNumber()).Msg("failed to create equipment")
		}
		return nil, err
	}

	s.publish(domain.EventsSince(e, 0))
	s.log.Info().
		Str("equipment_id", e.ID).
		Str("serial_number", e.SerialNumber()).
		Str("by", by).
		Msg("equipment created")
	return e, nil
}

func (s *EquipmentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.CanReadEquipment); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *EquipmentService) GetBySerialNumber(ctx context.Context, actor *domain.User, serial string) (*domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.CanReadEquipment); err != nil {
		return nil, err
	}
	return s.repo.FindBySerialNumber(ctx, strings.TrimSpace(serial))
}

func (s *EquipmentService) List(ctx context.Context, actor *domain.User, filter ports.EquipmentFilter) ([]*domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.CanReadEquipment); err != nil {
		return nil, err
	}
	filter.Name = strings.TrimSpace(filter.Name)
	return s.repo.List(ctx, filter)
}

// Update applies the present fields and persists once, only when at least
// one of them changed. Unchanged input returns the stored item untouched.
// A write that lost a race with another update is retried on a fresh read.
func (s *EquipmentService) Update(ctx context.Context, actor *domain.User, id string, in ports.UpdateEquipmentInput) (*domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.CanWriteEquipment); err != nil {
		return nil, err
	}

	by := domain.AttributionOf(actor)
	for attempt := 1; ; attempt++ {
		e, events, err := s.applyUpdate(ctx, by, id, in)
		if errors.Is(err, domain.ErrConcurrentUpdate) && attempt < maxUpdateAttempts {
			s.log.Debug().Str("equipment_id", id).Int("attempt", attempt).Msg("concurrent equipment update, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return e, nil
		}

		s.publish(events)
		s.log.Info().
			Str("equipment_id", e.ID).
			Int("changes", len(events)).
			Str("by", by).
			Msg("equipment updated")
		return e, nil
	}
}

// applyUpdate is one read-modify-write round. It returns the new log
// entries as events, none when nothing changed.
func (s *EquipmentService) applyUpdate(ctx context.Context, by, id string, in ports.UpdateEquipmentInput) (*domain.Equipment, []domain.EquipmentEvent, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	logged := len(e.ChangeLog())
	changed := false

	if in.Name != nil {
		c, err := e.ChangeName(*in.Name, by, now)
		if err != nil {
			return nil, nil, err
		}
		changed = changed || c
	}

	if in.SerialNumber != nil {
		serial := strings.TrimSpace(*in.SerialNumber)
		if serial != "" && serial != e.SerialNumber() {
			release, err := s.claimSerial(ctx, serial)
			if err != nil {
				return nil, nil, err
			}
			defer release()

			if err := s.ensureSerialFree(ctx, serial, e.ID); err != nil {
				return nil, nil, err
			}
		}
		c, err := e.ChangeSerialNumber(serial, by, now)
		if err != nil {
			return nil, nil, err
		}
		changed = changed || c
	}

	if in.Description != nil {
		changed = e.ChangeDescription(in.Description, by, now) || changed
	}

	if !changed {
		return e, nil, nil
	}

	e.MarkModified(by, now)
	if err := s.repo.Update(ctx, e, logged); err != nil {
		if !errors.Is(err, domain.ErrBusinessRule) && !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Str("equipment_id", e.ID).Msg("failed to update equipment")
		}
		return nil, nil, err
	}
	return e, domain.EventsSince(e, logged), nil
}

// Delete removes the item and its embedded log. The deletion itself is
// still recorded on the activity stream.
func (s *EquipmentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := domain.Authorize(actor, domain.CanWriteEquipment); err != nil {
		return err
	}

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	by := domain.AttributionOf(actor)
	s.publish([]domain.EquipmentEvent{{
		EquipmentID:  e.ID,
		SerialNumber: e.SerialNumber(),
		Timestamp:    s.now(),
		Actor:        by,
		Description:  "Equipment deleted.",
	}})
	s.log.Info().
		Str("equipment_id", e.ID).
		Str("serial_number", e.SerialNumber()).
		Str("by", by).
		Msg("equipment deleted")
	return nil
}

// ensureSerialFree fails when serial belongs to an item other than exceptID.
func (s *EquipmentService) ensureSerialFree(ctx context.Context, serial, exceptID string) error {
	existing, err := s.repo.FindBySerialNumber(ctx, serial)
	switch {
	case err == nil:
		if existing.ID != exceptID {
			return domain.ErrSerialNumberInUse
		}
		return nil
	case errors.Is(err, domain.ErrEquipmentNotFound):
		return nil
	default:
		return fmt.Errorf("check serial number: %w", err)
	}
}

// claimSerial takes the distributed claim on serial. A claim held by another
// request is a conflict; an unavailable lock store is logged and skipped,
// leaving the unique index as the only guard.
func (s *EquipmentService) claimSerial(ctx context.Context, serial string) (func(), error) {
	noop := func() {}
	if s.lock == nil {
		return noop, nil
	}

	token, ok, err := s.lock.Acquire(ctx, serial)
	if err != nil {
		s.log.Warn().Err(err).Str("serial_number", serial).Msg("serial lock unavailable, relying on unique index")
		return noop, nil
	}
	if !ok {
		return nil, domain.ErrSerialNumberInUse
	}
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), serial, token); err != nil {
			s.log.Warn().Err(err).Str("serial_number", serial).Msg("failed to release serial lock")
		}
	}, nil
}

func (s *EquipmentService) publish(events []domain.EquipmentEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	s.events.Publish(events...)
}
