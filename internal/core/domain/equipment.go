package domain

import (
	"fmt"
	"strings"
	"time"
)

// SystemActor attributes changes made without an authenticated user.
const SystemActor = "system"

// ChangeLogEntry is one immutable line of an equipment audit trail.
type ChangeLogEntry struct {
	Timestamp   time.Time
	Actor       string
	Description string
}

// Equipment is an inventory item. Every effective mutation appends exactly
// one entry to its change log; the log is never rewritten.
type Equipment struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string

	name         string
	serialNumber string
	description  *string
	changeLog    []ChangeLogEntry
}

// EquipmentState is the flat form used by persistence adapters.
type EquipmentState struct {
	ID           string
	Name         string
	SerialNumber string
	Description  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
	UpdatedBy    string
	ChangeLog    []ChangeLogEntry
}

// AttributionOf returns the name recorded for changes made by u.
func AttributionOf(u *User) string {
	if u == nil {
		return SystemActor
	}
	return attribution(u.Email)
}

func attribution(by string) string {
	by = strings.TrimSpace(by)
	if by == "" {
		return SystemActor
	}
	return by
}

// NewEquipment creates an item and records its creation.
func NewEquipment(name, serialNumber string, description *string, by string, at time.Time) (*Equipment, error) {
	name = strings.TrimSpace(name)
	serialNumber = strings.TrimSpace(serialNumber)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if serialNumber == "" {
		return nil, invalid("serial_number", "is required")
	}

	by = attribution(by)
	e := &Equipment{
		CreatedAt:    at,
		UpdatedAt:    at,
		CreatedBy:    by,
		UpdatedBy:    by,
		name:         name,
		serialNumber: serialNumber,
		description:  normalizeDescription(description),
	}
	e.record("Equipment created.", by, at)
	return e, nil
}

// RestoreEquipment rebuilds an item from persisted state.
func RestoreEquipment(s EquipmentState) *Equipment {
	log := make([]ChangeLogEntry, len(s.ChangeLog))
	copy(log, s.ChangeLog)
	return &Equipment{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		CreatedBy:    s.CreatedBy,
		UpdatedBy:    s.UpdatedBy,
		name:         s.Name,
		serialNumber: s.SerialNumber,
		description:  normalizeDescription(s.Description),
		changeLog:    log,
	}
}

// State snapshots the item for persistence.
func (e *Equipment) State() EquipmentState {
	return EquipmentState{
		ID:           e.ID,
		Name:         e.name,
		SerialNumber: e.serialNumber,
		Description:  e.Description(),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		CreatedBy:    e.CreatedBy,
		UpdatedBy:    e.UpdatedBy,
		ChangeLog:    e.ChangeLog(),
	}
}

func (e *Equipment) Name() string         { return e.name }
func (e *Equipment) SerialNumber() string { return e.serialNumber }

// Description returns a copy of the optional description.
func (e *Equipment) Description() *string {
	if e.description == nil {
		return nil
	}
	d := *e.description
	return &d
}

// ChangeLog returns a snapshot of the audit trail in append order.
func (e *Equipment) ChangeLog() []ChangeLogEntry {
	out := make([]ChangeLogEntry, len(e.changeLog))
	copy(out, e.changeLog)
	return out
}

// ChangeName renames the item. It reports false and logs nothing when the
// trimmed name equals the current one.
func (e *Equipment) ChangeName(name, by string, at time.Time) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, invalid("name", "is required")
	}
	if name == e.name {
		return false, nil
	}
	old := e.name
	e.name = name
	e.record(fmt.Sprintf("Name changed from '%s' to '%s'.", old, name), by, at)
	return true, nil
}

// ChangeSerialNumber replaces the serial number. Uniqueness is checked by
// the caller before persisting.
func (e *Equipment) ChangeSerialNumber(serial, by string, at time.Time) (bool, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return false, invalid("serial_number", "is required")
	}
	if serial == e.serialNumber {
		return false, nil
	}
	old := e.serialNumber
	e.serialNumber = serial
	e.record(fmt.Sprintf("Serial number changed from '%s' to '%s'.", old, serial), by, at)
	return true, nil
}

// ChangeDescription sets, clears or replaces the description. A nil or
// blank value means no description.
func (e *Equipment) ChangeDescription(description *string, by string, at time.Time) bool {
	next := normalizeDescription(description)

	var msg string
	switch {
	case e.description == nil && next == nil:
		return false
	case e.description == nil:
		msg = "Detailed description defined."
	case next == nil:
		msg = "Detailed description removed."
	case *e.description == *next:
		return false
	default:
		msg = "Detailed description changed."
	}
	e.description = next
	e.record(msg, by, at)
	return true
}

// MarkModified stamps the last-modification attribution.
func (e *Equipment) MarkModified(by string, at time.Time) {
	e.UpdatedAt = at
	e.UpdatedBy = attribution(by)
}

func (e *Equipment) record(description, by string, at time.Time) {
	e.changeLog = append(e.changeLog, ChangeLogEntry{
		Timestamp:   at,
		Actor:       attribution(by),
		Description: description,
	})
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
