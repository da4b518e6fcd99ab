package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/resumerank/internal/models"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/utils"
	"gorm.io/datatypes"
)

type GuestService interface {
	Create(ctx context.Context) (*models.GuestSession, error)
	// Get treats expired sessions as not found.
	Get(ctx context.Context, token string) (*models.GuestSession, error)
	UpdateData(ctx context.Context, token string, data json.RawMessage) error
	// Migrate links the session to userID. Repeating it for the same user succeeds;
	// a session already linked to another user is a conflict.
	Migrate(ctx context.Context, token, userID string) error
}

type guestService struct {
	sessions pgrepo.GuestSessionRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewGuestService(sessions pgrepo.GuestSessionRepository, ttl time.Duration) GuestService {
	return &guestService{sessions: sessions, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *guestService) Create(ctx context.Context) (*models.GuestSession, error) {
	const op = "GuestService.Create"

	now := s.now()
	gs := &models.GuestSession{
		ID:           uuid.NewString(),
		SessionToken: uuid.NewString(),
		Data:         datatypes.JSON(`{}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, gs); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create guest session", err)
	}
	return gs, nil
}

func (s *guestService) Get(ctx context.Context, token string) (*models.GuestSession, error) {
	const op = "GuestService.Get"

	if token == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "guest session token is required", nil)
	}
	gs, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "guest session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load guest session", err)
	}
	if gs.Expired(s.now()) {
		return nil, utils.E(utils.CodeNotFound, op, "guest session not found", nil)
	}
	return gs, nil
}

func (s *guestService) UpdateData(ctx context.Context, token string, data json.RawMessage) error {
	const op = "GuestService.UpdateData"

	if len(data) == 0 || !json.Valid(data) {
		return utils.E(utils.CodeInvalidArgument, op, "data must be valid JSON", nil)
	}
	if _, err := s.Get(ctx, token); err != nil {
		return err
	}
	if err := s.sessions.UpdateData(ctx, token, datatypes.JSON(data)); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "guest session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update guest session", err)
	}
	return nil
}

func (s *guestService) Migrate(ctx context.Context, token, userID string) error {
	const op = "GuestService.Migrate"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	gs, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if gs.MigratedToUserID == nil {
		ok, err := s.sessions.MarkMigrated(ctx, token, userID, s.now())
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to migrate guest session", err)
		}
		if ok {
			return nil
		}
		// lost a race; look at who won
		if gs, err = s.Get(ctx, token); err != nil {
			return err
		}
	}
	if gs.MigratedToUserID != nil && *gs.MigratedToUserID == userID {
		return nil
	}
	return utils.E(utils.CodeConflict, op, "guest session already migrated to another user", nil)
}
