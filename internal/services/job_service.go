package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/resumerank/internal/cache"
	"github.com/yoockh/resumerank/internal/models"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/utils"
)

type JobService interface {
	Create(ctx context.Context, userID, title, tag, requirements string) (*models.Job, error)
	List(ctx context.Context, userID string) ([]models.Job, error)
	ListAll(ctx context.Context) ([]models.Job, error)
	// Owned returns FORBIDDEN for missing and foreign jobs alike.
	Owned(ctx context.Context, jobID, userID string) (*models.Job, error)
	Delete(ctx context.Context, jobID, userID string) error
	Rankings(ctx context.Context, jobID, userID string) ([]models.Ranking, error)
}

type jobService struct {
	jobs        pgrepo.JobRepository
	resumes     pgrepo.ResumeRepository
	cache       cache.Cache
	rankingsTTL time.Duration
	logger      *logrus.Logger
}

func NewJobService(jobs pgrepo.JobRepository, resumes pgrepo.ResumeRepository, c cache.Cache, rankingsTTL time.Duration, logger *logrus.Logger) JobService {
	if c == nil {
		c = cache.Noop{}
	}
	return &jobService{jobs: jobs, resumes: resumes, cache: c, rankingsTTL: rankingsTTL, logger: logger}
}

func (s *jobService) Create(ctx context.Context, userID, title, tag, requirements string) (*models.Job, error) {
	const op = "JobService.Create"

	title, tag, requirements = strings.TrimSpace(title), strings.TrimSpace(tag), strings.TrimSpace(requirements)
	if title == "" || tag == "" || requirements == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title, tag and requirements are required", nil)
	}

	j := &models.Job{
		ID:           uuid.NewString(),
		Title:        title,
		Tag:          tag,
		Requirements: requirements,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "job tag already exists, please use a unique tag", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create job", err)
	}
	return j, nil
}

func (s *jobService) List(ctx context.Context, userID string) ([]models.Job, error) {
	const op = "JobService.List"

	rows, err := s.jobs.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list jobs", err)
	}
	return rows, nil
}

func (s *jobService) ListAll(ctx context.Context) ([]models.Job, error) {
	const op = "JobService.ListAll"

	rows, err := s.jobs.ListAll(ctx, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list jobs", err)
	}
	return rows, nil
}

func (s *jobService) Owned(ctx context.Context, jobID, userID string) (*models.Job, error) {
	const op = "JobService.Owned"

	if jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "jobId is required", nil)
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, utils.E(utils.CodeForbidden, op, "job not found or access denied", nil)
	}
	j, err := s.jobs.GetOwned(ctx, jobID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeForbidden, op, "job not found or access denied", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	return j, nil
}

func (s *jobService) Delete(ctx context.Context, jobID, userID string) error {
	const op = "JobService.Delete"

	if _, err := s.Owned(ctx, jobID, userID); err != nil {
		return err
	}
	if err := s.jobs.DeleteOwned(ctx, jobID, userID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeForbidden, op, "job not found or access denied", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete job", err)
	}
	s.invalidate(ctx, jobID)
	return nil
}

func (s *jobService) Rankings(ctx context.Context, jobID, userID string) ([]models.Ranking, error) {
	const op = "JobService.Rankings"

	if _, err := s.Owned(ctx, jobID, userID); err != nil {
		return nil, err
	}

	// the generation is read before the rows so an entry built from rows older than an
	// invalidation never matches again
	var gen int64
	if _, err := s.cache.GetJSON(ctx, cache.RankingsGenKey(jobID), &gen); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("rankings generation read failed")
	}

	key := cache.RankingsKey(jobID)
	var cached rankingsEntry
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("rankings cache read failed")
	}
	if hit && cached.Gen == gen && cached.Rows != nil {
		return cached.Rows, nil
	}

	rows, err := s.resumes.Rankings(ctx, jobID, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load rankings", err)
	}
	if rows == nil {
		rows = []models.Ranking{}
	}
	if err := s.cache.SetJSON(ctx, key, rankingsEntry{Gen: gen, Rows: rows}, s.rankingsTTL); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("rankings cache write failed")
	}
	return rows, nil
}

func (s *jobService) invalidate(ctx context.Context, jobID string) {
	invalidateRankings(ctx, s.cache, s.logger, jobID)
}

// rankingsGenTTL outlives any cached rankings entry.
const rankingsGenTTL = 24 * time.Hour

type rankingsEntry struct {
	Gen  int64            `json:"gen"`
	Rows []models.Ranking `json:"rows"`
}

func invalidateRankings(ctx context.Context, c cache.Cache, logger *logrus.Logger, jobID string) {
	if _, err := c.Incr(ctx, cache.RankingsGenKey(jobID), rankingsGenTTL); err != nil {
		logger.WithError(err).WithField("job_id", jobID).Warn("rankings generation bump failed")
	}
	if err := c.Del(ctx, cache.RankingsKey(jobID)); err != nil {
		logger.WithError(err).WithField("job_id", jobID).Warn("rankings cache invalidation failed")
	}
}
