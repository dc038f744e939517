package domain

import "time"

// EquipmentEvent is a change-log entry published to the activity stream.
// It outlives the equipment it describes.
type EquipmentEvent struct {
	EquipmentID  string
	SerialNumber string
	Timestamp    time.Time
	Actor        string
	Description  string
}

// EventsSince converts the log entries appended after the first skip
// entries into stream events.
func EventsSince(e *Equipment, skip int) []EquipmentEvent {
	log := e.ChangeLog()
	if skip < 0 || skip > len(log) {
		skip = len(log)
	}
	out := make([]EquipmentEvent, 0, len(log)-skip)
	for _, entry := range log[skip:] {
		out = append(out, EquipmentEvent{
			EquipmentID:  e.ID,
			SerialNumber: e.SerialNumber(),
			Timestamp:    entry.Timestamp,
			Actor:        entry.Actor,
			Description:  entry.Description,
		})
	}
	return out
}
