package handler

import (
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// --- Auth ---

type registerRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=150"`
	Email    string   `json:"email" validate:"required,email,max=254"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Roles    []string `json:"roles,omitempty" validate:"omitempty,max=3,dive,oneof=STANDARD ADMIN MASTER"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// --- Users ---

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,max=3,dive,oneof=STANDARD ADMIN MASTER"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) userResponse {
	roles := u.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return userResponse{
		ID:        u.ID,
		Name:      u.DisplayName,
		Email:     u.Email,
		Roles:     names,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// --- Equipment ---

type createEquipmentRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=150"`
	SerialNumber string  `json:"serial_number" validate:"required,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// updateEquipmentRequest fields are optional; absent fields are left as is
// and an empty description removes it.
type updateEquipmentRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitnil,min=2,max=150"`
	SerialNumber *string `json:"serial_number,omitempty" validate:"omitnil,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitnil,max=500"`
}

type changeLogResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
}

type equipmentResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	SerialNumber string              `json:"serial_number"`
	Description  *string             `json:"description,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CreatedBy    string              `json:"created_by"`
	UpdatedBy    string              `json:"updated_by"`
	ChangeLog    []changeLogResponse `json:"change_log"`
}

func toEquipmentResponse(e *domain.Equipment) equipmentResponse {
	log := e.ChangeLog()
	entries := make([]changeLogResponse, len(log))
	for i, entry := range log {
		entries[i] = changeLogResponse{
			Timestamp:   entry.Timestamp,
			Actor:       entry.Actor,
			Description: entry.Description,
		}
	}
	return equipmentResponse{
		ID:           e.ID,
		Name:         e.Name(),
		SerialNumber: e.SerialNumber(),
		Description:  e.Description(),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		CreatedBy:    e.CreatedBy,
		UpdatedBy:    e.UpdatedBy,
		ChangeLog:    entries,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}
