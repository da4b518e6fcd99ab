package events

import (
	"context"
	"errors"

	"github.com/yoockh/resumerank/internal/models"
)

const (
	TypeStarted      = "started"
	TypeResumeScored = "resume_scored"
	TypeCompleted    = "completed"
	TypeFailed       = "failed"
)

// Publisher fans batch progress out to listeners. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev models.ProgressEvent) error
}

// JobChannel is the Redis pub/sub channel carrying progress for one job.
func JobChannel(jobID string) string { return "job:" + jobID + ":status" }

// RoutingKey is the AMQP topic routing key for one job.
func RoutingKey(jobID string) string { return "job." + jobID }

type Noop struct{}

func (Noop) Publish(context.Context, models.ProgressEvent) error { return nil }

// Fanout publishes to every backend and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev models.ProgressEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
