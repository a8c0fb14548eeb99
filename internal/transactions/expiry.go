package transactions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/example/sunik/internal/locks"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
)

const (
	expiryJobName   = "transaction_expiry"
	defaultInterval = time.Minute
)

type staleExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryJobParams configure the expiry sweeper.
type ExpiryJobParams struct {
	Store    staleExpirer
	Locker   locks.Locker
	Logger   *logger.Logger
	Metrics  *metrics.Store
	Interval time.Duration
}

// ExpiryJob periodically expires unpaid transactions past their payment
// window. Only one instance sweeps per cycle when the locker is shared.
type ExpiryJob struct {
	store    staleExpirer
	locker   locks.Locker
	logg     *logger.Logger
	metrics  *metrics.Store
	interval time.Duration
	now      func() time.Time
}

func NewExpiryJob(p ExpiryJobParams) (*ExpiryJob, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("transaction store required")
	}
	if p.Locker == nil {
		p.Locker = locks.NewMemoryLocker()
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Interval <= 0 {
		p.Interval = defaultInterval
	}
	return &ExpiryJob{
		store:    p.Store,
		locker:   p.Locker,
		logg:     p.Logger,
		metrics:  p.Metrics,
		interval: p.Interval,
		now:      time.Now,
	}, nil
}

func (j *ExpiryJob) Name() string { return expiryJobName }

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (j *ExpiryJob) Run(ctx context.Context) error {
	ctx = j.logg.WithField(ctx, "job", expiryJobName)
	j.cycle(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logg.Info(ctx, "expiry job stopped")
			return ctx.Err()
		case <-ticker.C:
			j.cycle(ctx)
		}
	}
}

func (j *ExpiryJob) cycle(ctx context.Context) {
	start := j.now()
	expired, err := j.RunOnce(ctx)
	j.metrics.ObserveJob(expiryJobName, j.now().Sub(start), err)
	if err != nil {
		j.logg.Error(ctx, "expiry sweep failed", err)
		return
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "expired stale transactions")
	}
}

// RunOnce performs a single sweep. It returns zero without error when another
// instance holds the lock.
func (j *ExpiryJob) RunOnce(ctx context.Context) (n int64, err error) {
	key := "jobs:" + expiryJobName
	token, ok, err := j.locker.Acquire(ctx, key, 2*j.interval)
	if err != nil {
		return 0, fmt.Errorf("acquire expiry lock: %w", err)
	}
	if !ok {
		j.logg.Debug(ctx, "expiry sweep held elsewhere, skipping")
		return 0, nil
	}
	defer func() {
		if relErr := j.locker.Release(ctx, key, token); relErr != nil {
			err = multierr.Append(err, fmt.Errorf("release expiry lock: %w", relErr))
		}
	}()

	return j.store.ExpireStale(ctx, j.now())
}
