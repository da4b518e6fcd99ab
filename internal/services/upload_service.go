package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/resumerank/internal/cache"
	"github.com/yoockh/resumerank/internal/extract"
	"github.com/yoockh/resumerank/internal/models"
	pgrepo "github.com/yoockh/resumerank/internal/repositories/postgres"
	"github.com/yoockh/resumerank/internal/storage"
	"github.com/yoockh/resumerank/internal/utils"
)

type UploadFile struct {
	Filename string
	Data     []byte
}

type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type UploadResult struct {
	Added   int             `json:"added"`
	Skipped int             `json:"skipped"`
	Failed  []UploadFailure `json:"failed"`
}

type UploadService interface {
	// Upload stores every readable file as a resume of the job. Unreadable files are
	// reported in Failed and never stop the others.
	Upload(ctx context.Context, jobID, userID string, files []UploadFile) (*UploadResult, error)
}

type uploadService struct {
	jobs      JobService
	resumes   pgrepo.ResumeRepository
	extractor extract.Extractor
	uploader  storage.Uploader // optional
	cache     cache.Cache
	maxBytes  int64
	logger    *logrus.Logger
}

func NewUploadService(
	jobs JobService,
	resumes pgrepo.ResumeRepository,
	extractor extract.Extractor,
	uploader storage.Uploader,
	c cache.Cache,
	maxBytes int64,
	logger *logrus.Logger,
) UploadService {
	if c == nil {
		c = cache.Noop{}
	}
	return &uploadService{
		jobs:      jobs,
		resumes:   resumes,
		extractor: extractor,
		uploader:  uploader,
		cache:     c,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

func (s *uploadService) Upload(ctx context.Context, jobID, userID string, files []UploadFile) (*UploadResult, error) {
	const op = "UploadService.Upload"

	if len(files) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "at least one file is required", nil)
	}
	if _, err := s.jobs.Owned(ctx, jobID, userID); err != nil {
		return nil, err
	}

	res := &UploadResult{Failed: []UploadFailure{}}
	for _, f := range files {
		name := strings.TrimSpace(filepath.Base(f.Filename))
		if name == "" || name == "." || name == string(filepath.Separator) {
			res.Failed = append(res.Failed, UploadFailure{Filename: f.Filename, Error: "missing filename"})
			continue
		}

		// a known filename is a no-op whatever its bytes are
		dup, err := s.resumes.Exists(ctx, jobID, name)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to check resume", err)
		}
		if dup {
			res.Skipped++
			continue
		}
		if s.maxBytes > 0 && int64(len(f.Data)) > s.maxBytes {
			res.Failed = append(res.Failed, UploadFailure{Filename: name, Error: fmt.Sprintf("file exceeds %d bytes", s.maxBytes)})
			continue
		}

		text, err := s.extractor.Extract(name, f.Data)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"job_id": jobID, "filename": name}).WithError(err).Warn("resume extraction failed")
			res.Failed = append(res.Failed, UploadFailure{Filename: name, Error: err.Error()})
			continue
		}

		row := &models.Resume{
			ID:        uuid.NewString(),
			Filename:  name,
			Content:   text,
			JobID:     jobID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		}
		added, err := s.resumes.Add(ctx, row)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store resume", err)
		}
		if !added {
			res.Skipped++
			continue
		}
		res.Added++
		s.archive(ctx, row, f.Data)
	}

	if res.Added > 0 {
		invalidateRankings(ctx, s.cache, s.logger, jobID)
	}
	return res, nil
}

// archive keeps the original bytes when object storage is configured. Failures only log.
func (s *uploadService) archive(ctx context.Context, row *models.Resume, data []byte) {
	if s.uploader == nil {
		return
	}
	log := s.logger.WithFields(logrus.Fields{"job_id": row.JobID, "resume_id": row.ID})

	object := storage.ResumeObjectName(row.UserID, row.JobID, row.Filename)
	stored, err := s.uploader.Upload(ctx, object, storage.ContentType(row.Filename), bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Warn("resume archive upload failed")
		return
	}
	if err := s.resumes.SetFilePath(ctx, row.ID, stored); err != nil {
		log.WithError(err).Warn("failed to record archived file path")
		return
	}
	row.FilePath = stored
}
