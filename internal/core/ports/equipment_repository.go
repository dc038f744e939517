package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// EquipmentFilter narrows List results. Empty fields match everything.
type EquipmentFilter struct {
	// Name is a case-insensitive substring match.
	Name string
}

// EquipmentRepository persists equipment with its embedded change log.
// Create and Update return domain.ErrSerialNumberInUse when the unique serial
// index rejects the write.
//
// Update writes the fields of e and appends the log entries past
// loggedBefore, the log length observed when e was read. It returns
// domain.ErrConcurrentUpdate when the stored log no longer has that length.
type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	Update(ctx context.Context, e *domain.Equipment, loggedBefore int) error
	FindByID(ctx context.Context, id string) (*domain.Equipment, error)
	FindBySerialNumber(ctx context.Context, serial string) (*domain.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]*domain.Equipment, error)
	Delete(ctx context.Context, id string) error
}

// SerialLock serialises check-then-write on a serial number across
// instances. Acquire returns a token naming the claim; Release drops the
// claim only while that token still holds it, and is safe to call after
// the claim expired.
type SerialLock interface {
	Acquire(ctx context.Context, serial string) (token string, acquired bool, err error)
	Release(ctx context.Context, serial, token string) error
}

// EventPublisher fans equipment change-log entries out to the activity
// stream. Publish must not block the caller on storage.
type EventPublisher interface {
	Publish(events ...domain.EquipmentEvent)
}

// EventStore is the sink the activity stream writes to.
type EventStore interface {
	Insert(ctx context.Context, event domain.EquipmentEvent) error
}
