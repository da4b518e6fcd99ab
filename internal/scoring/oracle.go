package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/resumerank/internal/providers/llm"
)

// SentinelRetriesExhausted is returned when every attempt was rate limited.
const SentinelRetriesExhausted = "NAME: Unknown\nSCORE: 0\nSUMMARY: Failed after retries."

const (
	DefaultMaxAttempts    = 3
	DefaultBackoff        = 10 * time.Second
	DefaultRequestTimeout = 60 * time.Second
)

func errorSentinel(err error) string {
	return "NAME: Unknown\nSCORE: 0\nSUMMARY: Error: " + err.Error()
}

// Result is the raw oracle text for one resume plus how it was obtained.
type Result struct {
	Raw      string
	Attempts int
	// Degraded is set when Raw is a sentinel instead of a model answer.
	Degraded bool
	// Canceled is set when the caller's context ended before an answer arrived.
	Canceled bool
}

// Oracle scores one resume against job requirements. It never fails: errors degrade to sentinel text.
type Oracle interface {
	Score(ctx context.Context, resumeText, requirements string) Result
}

type Client struct {
	provider       llm.Provider
	logger         *logrus.Logger
	requestTimeout time.Duration
	newBackoff     func() retry.Backoff
}

type Option func(*Client)

// WithRetry sets the total attempt count and the fixed wait between rate-limited attempts.
func WithRetry(maxAttempts uint64, wait time.Duration) Option {
	return func(c *Client) {
		if maxAttempts == 0 {
			maxAttempts = 1
		}
		if wait <= 0 {
			// retry.NewConstant rejects non-positive intervals
			wait = time.Millisecond
		}
		c.newBackoff = func() retry.Backoff {
			return retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(wait))
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

func NewClient(provider llm.Provider, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		provider:       provider,
		logger:         logger,
		requestTimeout: DefaultRequestTimeout,
	}
	WithRetry(DefaultMaxAttempts, DefaultBackoff)(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

// Score calls the oracle once per attempt. Only rate limiting is retried; the wait between
// attempts ends early if ctx is canceled.
func (c *Client) Score(ctx context.Context, resumeText, requirements string) Result {
	prompt := BuildPrompt(requirements, resumeText)

	var (
		raw      string
		attempts int
	)
	err := retry.Do(ctx, c.newBackoff(), func(ctx context.Context) error {
		attempts++
		out, err := c.generate(ctx, prompt)
		if err == nil {
			raw = out
			return nil
		}
		if llm.IsRateLimited(err) {
			c.logger.WithFields(logrus.Fields{"attempt": attempts}).
				WithError(err).Warn("oracle rate limited, backing off")
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return Result{Raw: raw, Attempts: attempts}
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return Result{Raw: errorSentinel(err), Attempts: attempts, Degraded: true, Canceled: true}
	case llm.IsRateLimited(err):
		c.logger.WithField("attempts", attempts).Error("oracle still rate limited after retries")
		return Result{Raw: SentinelRetriesExhausted, Attempts: attempts, Degraded: true}
	default:
		c.logger.WithField("attempts", attempts).WithError(err).Error("oracle call failed")
		return Result{Raw: errorSentinel(err), Attempts: attempts, Degraded: true}
	}
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return c.provider.Generate(ctx, prompt)
}
