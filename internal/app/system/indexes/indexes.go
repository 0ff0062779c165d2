// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail
fast.

The two unique indexes here are load-bearing, not advisory:
  - users.email keeps accounts unique;
  - registrations (student_id, event_id) is the authoritative
    duplicate-registration guard the application code relies on.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureRegistrations(ctx, db); err != nil {
		problems = append(problems, "registrations: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureIndexSet creates the desired indexes for one collection.
// CreateMany is idempotent for identical definitions; an
// IndexOptionsConflict (same keys, different name or options) is
// resolved by dropping the stale index and recreating.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}

		_, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			continue
		}

		if isOptionsConflictErr(err) && name != "" {
			if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr != nil {
				zap.L().Warn("drop conflicting index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", name),
					zap.Error(dropErr))
			}
			if _, err = coll.Indexes().CreateOne(ctx, m); err == nil {
				zap.L().Info("index dropped and recreated",
					zap.String("collection", coll.Name()),
					zap.String("name", name))
				continue
			}
		}

		if isDuplicateKeyErr(err) {
			errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			continue
		}
		errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Best-effort duplicate-detector (works cross-vendors).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB returns IndexOptionsConflict when an index with the same
// keys already exists under a different name or options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all accounts.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Approval queue: role-restricted status lists, newest first.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_users_role_status_created"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Public listing: active events sorted by date.
		{
			Keys: bson.D{
				{Key: "active", Value: 1},
				{Key: "date", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_events_active_date__id"),
		},
		// Category filter on the public listing.
		{
			Keys: bson.D{
				{Key: "active", Value: 1},
				{Key: "category", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("idx_events_active_category_date"),
		},
		// Organizer dashboard.
		{
			Keys: bson.D{
				{Key: "organizer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_events_organizer_created"),
		},
	})
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("registrations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Uniqueness: exactly one registration per (student, event).
		// Concurrent duplicate attempts have exactly one winner.
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_regs_student_event"),
		},
		// Roster and stats: per-event listing in registration order.
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "registered_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_regs_event_registered__id"),
		},
		// "My registrations", newest first.
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "registered_at", Value: -1},
			},
			Options: options.Index().SetName("idx_regs_student_registered"),
		},
	})
}
