package detector

import (
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

// ErrThrottled marks a detection failure the caller should back off from.
// Labeler implementations wrap provider-specific throttling errors with it.
var ErrThrottled = errors.New("label detection throttled")

const (
	DefaultAttempts  = 5
	DefaultBaseDelay = time.Second
)

type Labeler interface {
	DetectLabels(ctx context.Context, bucket, key string, maxLabels int64) ([]entity.DetectedLabel, error)
}

type IDetector interface {
	Detect(ctx context.Context, bucket, key string) ([]entity.DetectedLabel, error)
}

type Option func(*client)

// WithAttempts sets the total number of calls, first one included.
func WithAttempts(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *client) {
		c.baseDelay = d
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *client) {
		c.sleep = sleep
	}
}

type client struct {
	labeler   Labeler
	log       *logrus.Logger
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

func New(labeler Labeler, log *logrus.Logger, opts ...Option) IDetector {
	c := &client{
		labeler:   labeler,
		log:       log,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		sleep:     sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Detect calls the labeler, retrying throttled calls with a doubling delay.
// Any other error is returned at once; once the attempts are used up the
// last throttling error is returned.
func (c *client) Detect(ctx context.Context, bucket, key string) ([]entity.DetectedLabel, error) {
	requestID := contextPkg.GetRequestID(ctx)
	delay := c.baseDelay

	for attempt := 1; ; attempt++ {
		labels, err := c.labeler.DetectLabels(ctx, bucket, key, entity.MaxLabels)
		if err == nil {
			if len(labels) > entity.MaxLabels {
				labels = labels[:entity.MaxLabels]
			}
			return labels, nil
		}

		if !errors.Is(err, ErrThrottled) || attempt >= c.attempts {
			return nil, err
		}

		c.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
			"attempt":    attempt,
			"delay":      delay.String(),
			"error":      err.Error(),
		}).Warn("Label detection throttled, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
