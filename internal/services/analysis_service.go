package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/resumerank/internal/cache"
	"github.com/yoockh/resumerank/internal/events"
	"github.com/yoockh/resumerank/internal/models"
	mongorepo "github.com/yoockh/resumerank/internal/repositories/mongo"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/scoring"
	"github.com/yoockh/resumerank/internal/utils"
	"golang.org/x/sync/errgroup"
)

// writeTimeout bounds persistence of a finished oracle answer after the request is gone.
const writeTimeout = 10 * time.Second

type AnalysisResult struct {
	Analyzed int `json:"analyzed"`
	Degraded int `json:"degraded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Enqueuer hands a batch to the background analysis workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID, userID string) (string, error)
}

type AnalysisService interface {
	// AnalyzeJob scores every unscored resume of the job. A resume's oracle failure
	// never fails the batch.
	AnalyzeJob(ctx context.Context, jobID, userID string) (*AnalysisResult, error)
	// Enqueue checks the job like AnalyzeJob does and queues it for the workers.
	Enqueue(ctx context.Context, jobID, userID string) (string, error)
	History(ctx context.Context, jobID, userID string, limit int64) ([]models.AnalysisLog, error)
}

type AnalysisDeps struct {
	Jobs    pgrepo.JobRepository
	Resumes pgrepo.ResumeRepository
	Oracle  scoring.Oracle
	Archive mongorepo.AnalysisLogRepository // optional
	Queue   Enqueuer                        // optional
	Cache   cache.Cache
	Locker  cache.Locker
	Events  events.Publisher
	Logger  *logrus.Logger

	Workers int
	LockTTL time.Duration
}

type analysisService struct {
	AnalysisDeps
}

func NewAnalysisService(d AnalysisDeps) AnalysisService {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Locker == nil {
		d.Locker = cache.NewLocalLocker()
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Workers <= 0 {
		d.Workers = 1
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 30 * time.Minute
	}
	return &analysisService{AnalysisDeps: d}
}

// ownedJob returns NOT_FOUND for a missing job and FORBIDDEN for someone else's.
func (s *analysisService) ownedJob(ctx context.Context, op, jobID, userID string) (*models.Job, error) {
	if jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "jobId is required", nil)
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "job not found", nil)
	}
	job, err := s.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if job.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "access denied", nil)
	}
	return job, nil
}

func (s *analysisService) AnalyzeJob(ctx context.Context, jobID, userID string) (*AnalysisResult, error) {
	const op = "AnalysisService.AnalyzeJob"

	job, err := s.ownedJob(ctx, op, jobID, userID)
	if err != nil {
		return nil, err
	}
	log := s.Logger.WithField("job_id", jobID)

	release, err := s.Locker.Acquire(ctx, cache.AnalysisLockKey(jobID), s.LockTTL)
	switch {
	case errors.Is(err, cache.ErrLocked):
		return nil, utils.E(utils.CodeConflict, op, "analysis already running for this job", err)
	case err != nil:
		// the conditional score write still keeps concurrent runs from double-writing
		log.WithError(err).Warn("analysis lock unavailable, continuing without it")
	default:
		defer release()
	}

	pending, err := s.Resumes.ListUnscored(ctx, jobID, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list unscored resumes", err)
	}

	b := &batch{svc: s, job: job, total: len(pending), log: log}
	b.publish(ctx, models.ProgressEvent{Type: events.TypeStarted})

	var g errgroup.Group
	g.SetLimit(s.Workers)
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		r := pending[i]
		g.Go(func() error {
			// g.Go may have waited for a free worker
			if ctx.Err() != nil {
				return nil
			}
			b.scoreOne(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		log.WithField("analyzed", b.res.Analyzed).Warn("analysis interrupted, remaining resumes stay unscored")
	}
	if b.res.Analyzed > 0 {
		invalidateRankings(context.WithoutCancel(ctx), s.Cache, s.Logger, jobID)
	}
	b.publish(ctx, models.ProgressEvent{Type: events.TypeCompleted})

	log.WithFields(logrus.Fields{
		"analyzed": b.res.Analyzed,
		"degraded": b.res.Degraded,
		"skipped":  b.res.Skipped,
		"failed":   b.res.Failed,
	}).Info("batch analysis finished")

	out := b.res
	return &out, nil
}

func (s *analysisService) Enqueue(ctx context.Context, jobID, userID string) (string, error) {
	const op = "AnalysisService.Enqueue"

	if s.Queue == nil {
		return "", utils.E(utils.CodeUnavailable, op, "background analysis is not configured", nil)
	}
	if _, err := s.ownedJob(ctx, op, jobID, userID); err != nil {
		return "", err
	}
	id, err := s.Queue.Enqueue(ctx, jobID, userID)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to queue analysis", err)
	}
	return id, nil
}

func (s *analysisService) History(ctx context.Context, jobID, userID string, limit int64) ([]models.AnalysisLog, error) {
	const op = "AnalysisService.History"

	if s.Archive == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "analysis archive is not configured", nil)
	}
	if _, err := s.ownedJob(ctx, op, jobID, userID); err != nil {
		return nil, err
	}
	logs, err := s.Archive.ListByJob(ctx, jobID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load analysis history", err)
	}
	return logs, nil
}

// batch holds the shared counters of one AnalyzeJob run.
type batch struct {
	svc   *analysisService
	job   *models.Job
	total int
	log   *logrus.Entry

	mu        sync.Mutex
	processed int
	res       AnalysisResult
}

func (b *batch) scoreOne(ctx context.Context, r models.Resume) {
	log := b.log.WithField("resume_id", r.ID)
	start := time.Now()

	out := b.svc.Oracle.Score(ctx, r.Content, b.job.Requirements)
	if out.Canceled {
		log.Info("oracle call canceled, resume left unscored")
		return
	}
	parsed := scoring.Parse(out.Raw)

	// a finished answer is persisted even if the caller has gone away
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	status := models.AnalysisStatusScored
	if out.Degraded {
		status = models.AnalysisStatusDegraded
	}
	saved, err := b.svc.Resumes.SaveScore(wctx, r.ID, parsed)
	switch {
	case err != nil:
		log.WithError(err).Error("failed to save resume score")
		b.count(func(res *AnalysisResult) { res.Failed++ })
		return
	case !saved:
		status = models.AnalysisStatusSkipped
		log.Info("resume already scored by another run")
	case out.Degraded:
		log.WithField("attempts", out.Attempts).Warn("stored sentinel score")
	}

	processed := b.count(func(res *AnalysisResult) {
		switch status {
		case models.AnalysisStatusSkipped:
			res.Skipped++
		case models.AnalysisStatusDegraded:
			res.Analyzed++
			res.Degraded++
		default:
			res.Analyzed++
		}
	})

	b.archive(wctx, r, out, parsed, status, time.Since(start))

	if status != models.AnalysisStatusSkipped {
		score := parsed.Score
		b.publish(wctx, models.ProgressEvent{
			Type:      events.TypeResumeScored,
			ResumeID:  r.ID,
			Score:     &score,
			Processed: processed,
		})
	}
}

func (b *batch) count(fn func(*AnalysisResult)) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.res)
	b.processed++
	return b.processed
}

func (b *batch) archive(ctx context.Context, r models.Resume, out scoring.Result, parsed models.ScoreResult, status string, took time.Duration) {
	if b.svc.Archive == nil {
		return
	}
	entry := &models.AnalysisLog{
		JobID:            b.job.ID,
		ResumeID:         r.ID,
		UserID:           r.UserID,
		RawResponse:      out.Raw,
		Attempts:         out.Attempts,
		Status:           status,
		Score:            parsed.Score,
		ProcessingTimeMS: took.Milliseconds(),
	}
	if err := b.svc.Archive.Insert(ctx, entry); err != nil {
		b.log.WithError(err).WithField("resume_id", r.ID).Warn("failed to archive oracle response")
	}
}

func (b *batch) publish(ctx context.Context, ev models.ProgressEvent) {
	ev.JobID = b.job.ID
	ev.Total = b.total
	ev.Timestamp = time.Now().UTC()
	if ev.Type != events.TypeResumeScored {
		b.mu.Lock()
		ev.Processed = b.processed
		b.mu.Unlock()
	}
	if err := b.svc.Events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		b.log.WithError(err).WithField("event", ev.Type).Debug("progress publish failed")
	}
}
