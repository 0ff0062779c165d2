// internal/app/store/registrations/registrationstore.go
package registrationstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventrahq/eventra/internal/domain/models"
)

var (
	// ErrDuplicate maps the unique (student_id, event_id) index.
	ErrDuplicate = errors.New("student is already registered for this event")

	// ErrAlreadyAttended is returned when the one-way attendance flip
	// finds the flag already set.
	ErrAlreadyAttended = errors.New("registration is already marked attended")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Insert persists a new registration. The unique compound index on
// (student_id, event_id) is the authoritative duplicate guard; a
// pre-check upstream only improves the error ordering.
func (s *Store) Insert(ctx context.Context, reg *models.Registration) error {
	if reg.ID.IsZero() {
		reg.ID = primitive.NewObjectID()
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}

	_, err := s.c.InsertOne(ctx, reg)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	var reg models.Registration
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Exists reports whether the student already holds a registration for
// the event.
func (s *Store) Exists(ctx context.Context, studentID, eventID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"student_id": studentID, "event_id": eventID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkAttended flips the attendance flag false→true exactly once. The
// filter and update run as a single conditional findOneAndUpdate, so
// two racing scans have exactly one winner; the loser observes
// ErrAlreadyAttended. Returns the registration after the flip.
func (s *Store) MarkAttended(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reg models.Registration
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "attended": false},
		bson.M{"$set": bson.M{"attended": true, "attended_at": now}},
		opts).Decode(&reg)
	if err == nil {
		return &reg, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Either the registration does not exist or it was already marked.
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return nil, err // mongo.ErrNoDocuments or a real failure
	}
	return nil, ErrAlreadyAttended
}

// ListByEvent returns an event's roster in registration order.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []models.Registration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// ListByStudent returns a student's registrations, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []models.Registration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// CountByEvent returns the number of registration documents for an
// event. The events counter is the fast path; this is the ground truth
// used by stats and the counter audit job.
func (s *Store) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID})
}

// CountAttendedByEvent returns how many registrations have checked in.
func (s *Store) CountAttendedByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID, "attended": true})
}

// FieldValueCounts aggregates submitted values for one custom field
// (select fields in practice), e.g. T-shirt size S/M/L totals.
func (s *Store) FieldValueCounts(ctx context.Context, eventID primitive.ObjectID, fieldName string) (map[string]int, error) {
	key := "$custom_field_data." + fieldName
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"event_id": eventID}},
		{"$group": bson.M{"_id": key, "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int)
	for cur.Next(ctx) {
		var row struct {
			Value *string `bson:"_id"`
			N     int     `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if row.Value == nil || *row.Value == "" {
			continue
		}
		counts[*row.Value] = row.N
	}
	return counts, cur.Err()
}
