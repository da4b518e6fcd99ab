package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GuestSessionRepository interface {
	Create(ctx context.Context, s *models.GuestSession) error
	GetByToken(ctx context.Context, token string) (*models.GuestSession, error)
	UpdateData(ctx context.Context, token string, data datatypes.JSON) error
	// MarkMigrated links an unmigrated session to userID. It reports false when the
	// session was already linked.
	MarkMigrated(ctx context.Context, token, userID string, at time.Time) (bool, error)
}

type guestSessionRepo struct {
	db *gorm.DB
}

func NewGuestSessionRepo(db *gorm.DB) GuestSessionRepository {
	return &guestSessionRepo{db: db}
}

func (r *guestSessionRepo) Create(ctx context.Context, s *models.GuestSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *guestSessionRepo) GetByToken(ctx context.Context, token string) (*models.GuestSession, error) {
	var s models.GuestSession
	err := r.db.WithContext(ctx).Where("session_token = ?", token).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *guestSessionRepo) UpdateData(ctx context.Context, token string, data datatypes.JSON) error {
	res := r.db.WithContext(ctx).
		Model(&models.GuestSession{}).
		Where("session_token = ?", token).
		Update("data", data)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *guestSessionRepo) MarkMigrated(ctx context.Context, token, userID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GuestSession{}).
		Where("session_token = ? AND migrated_to_user_id IS NULL", token).
		Updates(map[string]any{
			"migrated_to_user_id": userID,
			"migrated_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
