package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/resumerank/internal/events"
	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/utils"
)

const (
	DefaultStream = "analysis:stream"
	DefaultGroup  = "analysis-workers"
)

// AnalysisQueue appends batch requests to a Redis stream.
type AnalysisQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *AnalysisQueue) Enqueue(ctx context.Context, jobID, userID string) (string, error) {
	stream := q.Stream
	if stream == "" {
		stream = DefaultStream
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"job_id":      jobID,
			"user_id":     userID,
			"enqueued_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Result()
}

// AnalysisWorkerPool consumes queued batches and runs them through the analysis service.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Analysis   services.AnalysisService
	Events     events.Publisher
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Analysis == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Analysis must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 1
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.Events == nil {
		p.Events = events.Noop{}
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

// runConsumer first replays entries this consumer left pending, then reads new ones.
func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	readID := "0"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, readID},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		delivered := 0
		for _, stream := range res {
			for _, msg := range stream.Messages {
				delivered++
				if !p.handleMsg(ctx, msg) {
					continue
				}
				_ = p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err()
			}
		}
		if readID == "0" && delivered == 0 {
			readID = ">"
		}
	}
}

// handleMsg reports whether the entry is done and can be acked. A run cut short by
// shutdown stays pending.
func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) bool {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	jobID := getStr("job_id")
	userID := getStr("user_id")
	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"job_id":   jobID,
		"user_id":  userID,
	})
	if jobID == "" || userID == "" {
		log.Warn("dropping malformed analysis request")
		return true
	}

	res, err := p.Analysis.AnalyzeJob(ctx, jobID, userID)
	if ctx.Err() != nil {
		log.Info("queued analysis interrupted by shutdown, left pending")
		return false
	}
	if err != nil {
		log.WithError(err).WithField("code", utils.CodeOf(err)).Error("queued analysis failed")
		_ = p.Events.Publish(ctx, models.ProgressEvent{
			Type:      events.TypeFailed,
			JobID:     jobID,
			Timestamp: time.Now().UTC(),
		})
		return true
	}
	log.WithField("analyzed", res.Analyzed).Info("queued analysis done")
	return true
}
