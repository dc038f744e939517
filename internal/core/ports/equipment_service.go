package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

type CreateEquipmentInput struct {
	Name         string
	SerialNumber string
	Description  *string
}

// UpdateEquipmentInput applies only non-nil fields. A non-nil blank
// Description clears it.
type UpdateEquipmentInput struct {
	Name         *string
	SerialNumber *string
	Description  *string
}

// EquipmentService holds the equipment use cases. Writes take the acting
// identity explicitly for authorization and change-log attribution.
type EquipmentService interface {
	Create(ctx context.Context, actor *domain.User, in CreateEquipmentInput) (*domain.Equipment, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.Equipment, error)
	GetBySerialNumber(ctx context.Context, actor *domain.User, serial string) (*domain.Equipment, error)
	List(ctx context.Context, actor *domain.User, filter EquipmentFilter) ([]*domain.Equipment, error)
	Update(ctx context.Context, actor *domain.User, id string, in UpdateEquipmentInput) (*domain.Equipment, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
