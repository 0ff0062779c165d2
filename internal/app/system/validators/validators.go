// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. On servers that don't support collMod/validators (e.g.
// some DocumentDB versions), we log and skip gracefully; the unique
// indexes and application checks still hold the critical invariants.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("events", eventsSchema())
	ensure("registrations", registrationsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	err := db.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	// NamespaceExists (code 48) means the collection is already there.
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return nil
	}
	if strings.Contains(err.Error(), "already exists") {
		return nil
	}
	return err
}

func setValidator(ctx context.Context, db *mongo.Database, coll string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: coll},
		{Key: "validator", Value: bson.M{"$jsonSchema": schema}},
		{Key: "validationLevel", Value: "moderate"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

func isUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 59 CommandNotFound, 115 CommandNotSupported
		if ce.Code == 59 || ce.Code == 115 {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") || strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

func usersSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"full_name", "email", "role", "status"},
		"properties": bson.M{
			"email": bson.M{"bsonType": "string", "minLength": 3},
			"role": bson.M{
				"enum": bson.A{"student", "organizer", "admin"},
			},
			"status": bson.M{
				"enum": bson.A{"pending", "approved", "rejected"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"title", "capacity", "registration_count", "organizer_id", "active"},
		"properties": bson.M{
			"capacity": bson.M{"bsonType": "int", "minimum": 1},
			// The guarded increment keeps registration_count ≤ capacity;
			// the schema can only express the lower bound.
			"registration_count": bson.M{"bsonType": "int", "minimum": 0},
			"active":             bson.M{"bsonType": "bool"},
		},
	}
}

func registrationsSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"event_id", "student_id", "student_name", "student_email", "attended", "registered_at"},
		"properties": bson.M{
			"attended": bson.M{"bsonType": "bool"},
		},
	}
}
