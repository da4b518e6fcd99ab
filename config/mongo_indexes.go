package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AnalysisLogCollection = "analysis_log"

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(AnalysisLogCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		// TTL: expire at ExpiresAt (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_job_ts"),
		},
		{
			Keys:    bson.D{{Key: "resume_id", Value: 1}},
			Options: options.Index().SetName("by_resume"),
		},
	})
	return err
}
