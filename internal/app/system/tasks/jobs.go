// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CounterAuditJob compares each event's registration_count with the
// actual registration document count and logs any drift. The guarded
// increment keeps the two in lockstep, so drift means a bug or manual
// data surgery; the job observes and reports, it never repairs.
func CounterAuditJob(db *mongo.Database, logger *zap.Logger, interval time.Duration) Job {
	events := db.Collection("events")
	registrations := db.Collection("registrations")

	return Job{
		Name:     "registration-counter-audit",
		Interval: interval,
		Run: func(ctx context.Context) error {
			cur, err := events.Find(ctx, bson.M{}, nil)
			if err != nil {
				return err
			}
			defer cur.Close(ctx)

			for cur.Next(ctx) {
				var ev struct {
					ID                any    `bson:"_id"`
					Title             string `bson:"title"`
					RegistrationCount int64  `bson:"registration_count"`
				}
				if err := cur.Decode(&ev); err != nil {
					return err
				}

				actual, err := registrations.CountDocuments(ctx, bson.M{"event_id": ev.ID})
				if err != nil {
					return err
				}
				if actual != ev.RegistrationCount {
					logger.Warn("registration counter drift",
						zap.Any("event_id", ev.ID),
						zap.String("title", ev.Title),
						zap.Int64("counter", ev.RegistrationCount),
						zap.Int64("actual", actual))
				}
			}
			return cur.Err()
		},
	}
}
