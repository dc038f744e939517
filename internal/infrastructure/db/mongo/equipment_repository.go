package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const collectionEquipment = "equipment"

type EquipmentRepository struct {
	col *mongo.Collection
}

func NewEquipmentRepository(db *mongo.Database) *EquipmentRepository {
	return &EquipmentRepository{col: db.Collection(collectionEquipment)}
}

type changeLogDocument struct {
	Timestamp   time.Time `bson:"timestamp"`
	Actor       string    `bson:"actor"`
	Description string    `bson:"description"`
}

type equipmentDocument struct {
	ID           string              `bson:"_id"`
	Name         string              `bson:"name"`
	SerialNumber string              `bson:"serial_number"`
	Description  *string             `bson:"description,omitempty"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
	CreatedBy    string              `bson:"created_by"`
	UpdatedBy    string              `bson:"updated_by"`
	ChangeLog    []changeLogDocument `bson:"change_log"`
}

func toEquipmentDocument(e *domain.Equipment) equipmentDocument {
	s := e.State()
	log := make([]changeLogDocument, len(s.ChangeLog))
	for i, entry := range s.ChangeLog {
		log[i] = changeLogDocument{
			Timestamp:   entry.Timestamp.UTC(),
			Actor:       entry.Actor,
			Description: entry.Description,
		}
	}
	return equipmentDocument{
		ID:           s.ID,
		Name:         s.Name,
		SerialNumber: s.SerialNumber,
		Description:  s.Description,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
		CreatedBy:    s.CreatedBy,
		UpdatedBy:    s.UpdatedBy,
		ChangeLog:    log,
	}
}

func (d equipmentDocument) toDomain() *domain.Equipment {
	log := make([]domain.ChangeLogEntry, len(d.ChangeLog))
	for i, entry := range d.ChangeLog {
		log[i] = domain.ChangeLogEntry{
			Timestamp:   entry.Timestamp.UTC(),
			Actor:       entry.Actor,
			Description: entry.Description,
		}
	}
	return domain.RestoreEquipment(domain.EquipmentState{
		ID:           d.ID,
		Name:         d.Name,
		SerialNumber: d.SerialNumber,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		CreatedBy:    d.CreatedBy,
		UpdatedBy:    d.UpdatedBy,
		ChangeLog:    log,
	})
}

// Create inserts a new item. The unique serial index turns a lost race into
// domain.ErrSerialNumberInUse.
func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toEquipmentDocument(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSerialNumberInUse
		}
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

// Update sets the scalar fields and pushes the log entries past loggedBefore
// in one write. The filter requires the stored log to still hold exactly
// loggedBefore entries, so a concurrent update is detected instead of lost.
func (r *EquipmentRepository) Update(ctx context.Context, e *domain.Equipment, loggedBefore int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, update := equipmentUpdate(toEquipmentDocument(e), loggedBefore)
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSerialNumberInUse
		}
		return fmt.Errorf("update equipment: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": e.ID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	if n == 0 {
		return domain.ErrEquipmentNotFound
	}
	return domain.ErrConcurrentUpdate
}

// equipmentUpdate builds the guarded filter and the $set/$push update.
func equipmentUpdate(doc equipmentDocument, loggedBefore int) (bson.M, bson.M) {
	if loggedBefore < 0 || loggedBefore > len(doc.ChangeLog) {
		loggedBefore = len(doc.ChangeLog)
	}
	filter := bson.M{
		"_id":        doc.ID,
		"change_log": bson.M{"$size": loggedBefore},
	}

	set := bson.M{
		"name":          doc.Name,
		"serial_number": doc.SerialNumber,
		"updated_at":    doc.UpdatedAt,
		"updated_by":    doc.UpdatedBy,
	}
	update := bson.M{"$set": set}
	if doc.Description != nil {
		set["description"] = *doc.Description
	} else {
		update["$unset"] = bson.M{"description": ""}
	}
	if added := doc.ChangeLog[loggedBefore:]; len(added) > 0 {
		update["$push"] = bson.M{"change_log": bson.M{"$each": added}}
	}
	return filter, update
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*domain.Equipment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *EquipmentRepository) FindBySerialNumber(ctx context.Context, serial string) (*domain.Equipment, error) {
	return r.findOne(ctx, bson.M{"serial_number": serial})
}

func (r *EquipmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Equipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc equipmentDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("find equipment: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns items ordered by name, optionally filtered by a
// case-insensitive name fragment.
func (r *EquipmentRepository) List(ctx context.Context, filter ports.EquipmentFilter) ([]*domain.Equipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, listFilter(filter), options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer cur.Close(ctx)

	var docs []equipmentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode equipment: %w", err)
	}
	items := make([]*domain.Equipment, len(docs))
	for i, d := range docs {
		items[i] = d.toDomain()
	}
	return items, nil
}

func listFilter(f ports.EquipmentFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	return filter
}

func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "serial_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_serial_number"),
		},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
