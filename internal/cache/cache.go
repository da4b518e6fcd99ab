package cache

import (
	"context"
	"errors"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr atomically bumps an integer counter and refreshes its ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Locker hands out short-lived exclusive locks keyed by name.
type Locker interface {
	// Acquire returns ErrLocked when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

var ErrLocked = errors.New("lock held by another holder")

func RankingsKey(jobID string) string { return "rankings:" + jobID }

// RankingsGenKey counts rankings invalidations; cached rankings carry the generation they were read at.
func RankingsGenKey(jobID string) string { return "rankings:gen:" + jobID }

func AnalysisLockKey(jobID string) string { return "lock:analysis:" + jobID }

// Noop never hits. Used when Redis is not configured.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) (bool, error)         { return false, nil }
func (Noop) SetJSON(context.Context, string, any, time.Duration) error  { return nil }
func (Noop) Del(context.Context, ...string) error                       { return nil }
func (Noop) Incr(context.Context, string, time.Duration) (int64, error) { return 0, nil }
