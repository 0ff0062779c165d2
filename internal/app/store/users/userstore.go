// internal/app/store/users/userstore.go
package userstore

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

// ErrDuplicateEmail maps the unique index on users.email.
var ErrDuplicateEmail = errors.New("email is already registered")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new account. The caller sets role and status; the
// unique email index is the authoritative duplicate guard.
func (s *Store) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetStatus updates the approval status of one account.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByStatus returns student and organizer accounts in the given
// status, newest first. Admin accounts never appear in the queue.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]models.User, error) {
	filter := bson.M{
		"role":   bson.M{"$in": []string{models.RoleStudent, models.RoleOrganizer}},
		"status": status,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureAdmin creates (or leaves untouched) the seeded admin account.
// Idempotent; called at startup.
func (s *Store) EnsureAdmin(ctx context.Context, email, fullName, passwordHash string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"_id":           primitive.NewObjectID(),
			"full_name":     fullName,
			"email":         email,
			"password_hash": passwordHash,
			"role":          models.RoleAdmin,
			"status":        models.StatusApproved,
			"created_at":    now,
			"updated_at":    now,
		}},
		options.Update().SetUpsert(true))
	return err
}
