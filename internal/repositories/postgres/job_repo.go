package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/utils"
	"gorm.io/gorm"
)

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	// GetOwned returns utils.ErrNotFound for a missing job and for a job owned by someone else.
	GetOwned(ctx context.Context, id, userID string) (*models.Job, error)
	ListByUser(ctx context.Context, userID string) ([]models.Job, error)
	ListAll(ctx context.Context, limit int) ([]models.Job, error)
	// DeleteOwned removes the job and every resume under it in one transaction.
	DeleteOwned(ctx context.Context, id, userID string) error
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	err := r.db.WithContext(ctx).Create(j).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) GetOwned(ctx context.Context, id, userID string) (*models.Job, error) {
	var j models.Job
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) ListByUser(ctx context.Context, userID string) ([]models.Job, error) {
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *jobRepo) ListAll(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *jobRepo) DeleteOwned(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Job{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		// resumes also cascade in the schema; deleting explicitly keeps the count exact
		return tx.Where("job_id = ?", id).Delete(&models.Resume{}).Error
	})
}
