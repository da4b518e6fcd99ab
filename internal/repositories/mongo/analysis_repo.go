package mongo

import (
	"context"
	"time"

	"github.com/yoockh/resumerank/config"
	"github.com/yoockh/resumerank/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnalysisLogRepository interface {
	Insert(ctx context.Context, l *models.AnalysisLog) error
	ListByJob(ctx context.Context, jobID string, limit int64) ([]models.AnalysisLog, error)
}

type analysisLogRepo struct {
	col *mongo.Collection
	ttl time.Duration
}

// NewAnalysisLogRepo stores raw oracle exchanges; entries expire after ttl.
func NewAnalysisLogRepo(db *mongo.Database, ttl time.Duration) AnalysisLogRepository {
	return &analysisLogRepo{col: db.Collection(config.AnalysisLogCollection), ttl: ttl}
}

func (r *analysisLogRepo) Insert(ctx context.Context, l *models.AnalysisLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	if l.ExpiresAt.IsZero() && r.ttl > 0 {
		l.ExpiresAt = l.Timestamp.Add(r.ttl)
	}
	_, err := r.col.InsertOne(ctx, l)
	return err
}

func (r *analysisLogRepo) ListByJob(ctx context.Context, jobID string, limit int64) ([]models.AnalysisLog, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"job_id": jobID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.AnalysisLog, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
