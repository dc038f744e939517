package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

const collectionEquipmentEvents = "equipment_events"

// EventStore appends activity-stream events. Documents are never updated.
type EventStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{
		col: db.Collection(collectionEquipmentEvents),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventStore) Insert(ctx context.Context, event domain.EquipmentEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"equipment_id":  event.EquipmentID,
		"serial_number": event.SerialNumber,
		"timestamp":     event.Timestamp.UTC(),
		"actor":         event.Actor,
		"description":   event.Description,
		"recorded_at":   s.now(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert equipment event: %w", err)
	}
	return nil
}

func (s *EventStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "equipment_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "serial_number", Value: 1}}},
	}
	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}
