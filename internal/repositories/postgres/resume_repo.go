package postgres

import (
	"context"

	"github.com/yoockh/resumerank/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResumeRepository interface {
	// Add inserts the resume unless (job_id, filename) already exists; added is false for duplicates.
	Add(ctx context.Context, r *models.Resume) (added bool, err error)
	Exists(ctx context.Context, jobID, filename string) (bool, error)
	ListUnscored(ctx context.Context, jobID, userID string) ([]models.Resume, error)
	// SaveScore writes the result only while the resume is still unscored.
	SaveScore(ctx context.Context, resumeID string, res models.ScoreResult) (saved bool, err error)
	Rankings(ctx context.Context, jobID, userID string) ([]models.Ranking, error)
	SetFilePath(ctx context.Context, resumeID, path string) error
	CountByJob(ctx context.Context, jobID string) (int64, error)
}

type resumeRepo struct {
	db *gorm.DB
}

func NewResumeRepo(db *gorm.DB) ResumeRepository {
	return &resumeRepo{db: db}
}

func (r *resumeRepo) Add(ctx context.Context, row *models.Resume) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "filename"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *resumeRepo) Exists(ctx context.Context, jobID, filename string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Where("job_id = ? AND filename = ?", jobID, filename).
		Count(&n).Error
	return n > 0, err
}

func (r *resumeRepo) ListUnscored(ctx context.Context, jobID, userID string) ([]models.Resume, error) {
	var rows []models.Resume
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND user_id = ? AND match_score IS NULL", jobID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *resumeRepo) SaveScore(ctx context.Context, resumeID string, res models.ScoreResult) (bool, error) {
	out := r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Where("id = ? AND match_score IS NULL", resumeID).
		Updates(map[string]any{
			"candidate_name": res.Name,
			"match_score":    res.Score,
			"ai_analysis":    res.Summary,
		})
	if out.Error != nil {
		return false, out.Error
	}
	return out.RowsAffected > 0, nil
}

func (r *resumeRepo) Rankings(ctx context.Context, jobID, userID string) ([]models.Ranking, error) {
	var rows []models.Ranking
	err := r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Select("id AS resume_id, filename, candidate_name, match_score AS score, ai_analysis AS summary").
		Where("job_id = ? AND user_id = ?", jobID, userID).
		Order("match_score DESC NULLS LAST, created_at ASC, id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *resumeRepo) SetFilePath(ctx context.Context, resumeID, path string) error {
	return r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Where("id = ?", resumeID).
		Update("file_path", path).Error
}

func (r *resumeRepo) CountByJob(ctx context.Context, jobID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Where("job_id = ?", jobID).
		Count(&n).Error
	return n, err
}
