// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventrahq/eventra/internal/domain/models"
)

// ErrEventFull is returned by ReserveSlot when the guarded increment
// finds no remaining capacity.
var ErrEventFull = errors.New("event has reached capacity")

// ErrCapacityBelowCount is returned by Update when the new capacity is
// smaller than the registrations already taken.
var ErrCapacityBelowCount = errors.New("capacity below registration count")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func (s *Store) Create(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.TitleCI = strings.ToLower(e.Title)
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, e)
	return err
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// FindActiveByID returns the event only if it is still active.
func (s *Store) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "active": true}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Filter narrows the public event listing.
type Filter struct {
	Category string
	Query    string // title prefix/substring, case-insensitive
}

// ListActive returns active events matching the filter, soonest first.
func (s *Store) ListActive(ctx context.Context, f Filter) ([]models.Event, error) {
	filter := bson.M{"active": true}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Query != "" {
		filter["title_ci"] = bson.M{"$regex": regexEscape(strings.ToLower(f.Query))}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByOrganizer returns all of an organizer's events, newest first.
func (s *Store) ListByOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organizer_id": organizerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update rewrites the mutable event fields. The registration counter is
// never touched here; it belongs to the registration path alone. The
// capacity write is guarded against the live counter in the same
// update, so a registration landing mid-request cannot leave the
// counter above capacity.
func (s *Store) Update(ctx context.Context, e *models.Event) error {
	filter := bson.M{
		"_id":   e.ID,
		"$expr": bson.M{"$lte": bson.A{"$registration_count", e.Capacity}},
	}
	res, err := s.c.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{
			"title":         e.Title,
			"title_ci":      strings.ToLower(e.Title),
			"description":   e.Description,
			"category":      e.Category,
			"venue":         e.Venue,
			"date":          e.Date,
			"start_time":    e.StartTime,
			"end_time":      e.EndTime,
			"capacity":      e.Capacity,
			"custom_fields": e.CustomFields,
			"updated_at":    time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Disambiguate "gone" from "capacity guard refused".
		if err := s.c.FindOne(ctx, bson.M{"_id": e.ID}).Err(); err != nil {
			return err // mongo.ErrNoDocuments or a real failure
		}
		return ErrCapacityBelowCount
	}
	return nil
}

// Deactivate closes an event to new registrations and scans.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReserveSlot atomically claims one registration slot. The filter and
// increment run as a single findOneAndUpdate, so concurrent requests
// can never push registration_count past capacity. Returns the event
// as it looks after the increment.
//
// mongo.ErrNoDocuments means the event is missing or inactive;
// ErrEventFull means it exists but has no capacity left.
func (s *Store) ReserveSlot(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	filter := bson.M{
		"_id":    id,
		"active": true,
		"$expr":  bson.M{"$lt": bson.A{"$registration_count", "$capacity"}},
	}
	update := bson.M{
		"$inc": bson.M{"registration_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Event
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Disambiguate "gone" from "full".
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "active": true}).Err(); err != nil {
		return nil, err // mongo.ErrNoDocuments or a real failure
	}
	return nil, ErrEventFull
}

// ReleaseSlot undoes a reservation whose registration insert lost the
// duplicate race. This is compensation only; there is no user-facing
// cancellation flow, so the counter never otherwise decreases.
func (s *Store) ReleaseSlot(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "registration_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"registration_count": -1}})
	return err
}

// regexEscape quotes regex metacharacters so user queries are treated
// as literal text.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
