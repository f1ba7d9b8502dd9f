package retrying

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	databaseerrors "shopcarts/internal/database"
	"shopcarts/internal/models"
	"shopcarts/pkg/lib/logger/sl"

	"github.com/sethvargo/go-retry"
)

type ShopcartItemStorage interface {
	Create(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error)
	Update(ctx context.Context, key models.ItemKey, fn func(item *models.ShopcartItem) error) (models.ShopcartItem, error)
	Delete(ctx context.Context, key models.ItemKey) error
	DeleteByShopcartId(ctx context.Context, shopcartId int) (int64, error)
	Find(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error)
	FindByShopcartId(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error)
	FindByProductId(ctx context.Context, productId int) ([]models.ShopcartItem, error)
	All(ctx context.Context) ([]models.ShopcartItem, error)
	CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// Attempts is the number of retries after the first call.
	Attempts  uint64
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// IsTransient decides whether a failed call may be repeated.
	IsTransient func(err error) bool
}

// Storage repeats calls to the wrapped storage while they fail with transient errors.
// Once retries are exhausted the last error is wrapped with databaseerrors.ErrUnavailable.
type Storage struct {
	log  *slog.Logger
	next ShopcartItemStorage
	opts Options
}

func New(log *slog.Logger, next ShopcartItemStorage, opts Options) *Storage {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	if opts.IsTransient == nil {
		opts.IsTransient = func(error) bool { return false }
	}

	return &Storage{
		log:  log,
		next: next,
		opts: opts,
	}
}

func (s *Storage) backoff() retry.Backoff {
	b := retry.NewExponential(s.opts.BaseDelay)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(s.opts.MaxDelay, b)
	return retry.WithMaxRetries(s.opts.Attempts, b)
}

func do[T any](ctx context.Context, s *Storage, op string, call func(ctx context.Context) (T, error)) (T, error) {
	log := s.log.With("op", op)

	var (
		result  T
		attempt int
	)
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++

		res, err := call(ctx)
		if err != nil {
			if errors.Is(err, databaseerrors.ErrOutcomeUnknown) {
				return err
			}
			if s.opts.IsTransient(err) {
				log.Warn("Transient storage error", "attempt", attempt, sl.Err(err))
				return retry.RetryableError(err)
			}
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		var zero T
		if errors.Is(err, databaseerrors.ErrOutcomeUnknown) {
			log.Error("Write may have been applied, not retrying", "attempts", attempt, sl.Err(err))
			return zero, fmt.Errorf("%s: %w: %w", op, databaseerrors.ErrUnavailable, err)
		}
		if s.opts.IsTransient(err) {
			log.Error("Storage unavailable, giving up", "attempts", attempt, sl.Err(err))
			return zero, fmt.Errorf("%s: %w: %w", op, databaseerrors.ErrUnavailable, err)
		}
		return zero, err
	}

	return result, nil
}

func (s *Storage) Create(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.Create", func(ctx context.Context) (models.ShopcartItem, error) {
		return s.next.Create(ctx, item)
	})
}

func (s *Storage) Update(
	ctx context.Context,
	key models.ItemKey,
	fn func(item *models.ShopcartItem) error,
) (models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.Update", func(ctx context.Context) (models.ShopcartItem, error) {
		return s.next.Update(ctx, key, fn)
	})
}

func (s *Storage) Delete(ctx context.Context, key models.ItemKey) error {
	_, err := do(ctx, s, "database.retrying.Delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.next.Delete(ctx, key)
	})
	return err
}

func (s *Storage) DeleteByShopcartId(ctx context.Context, shopcartId int) (int64, error) {
	return do(ctx, s, "database.retrying.DeleteByShopcartId", func(ctx context.Context) (int64, error) {
		return s.next.DeleteByShopcartId(ctx, shopcartId)
	})
}

func (s *Storage) Find(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.Find", func(ctx context.Context) (models.ShopcartItem, error) {
		return s.next.Find(ctx, key)
	})
}

func (s *Storage) FindByShopcartId(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.FindByShopcartId", func(ctx context.Context) ([]models.ShopcartItem, error) {
		return s.next.FindByShopcartId(ctx, shopcartId)
	})
}

func (s *Storage) FindByProductId(ctx context.Context, productId int) ([]models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.FindByProductId", func(ctx context.Context) ([]models.ShopcartItem, error) {
		return s.next.FindByProductId(ctx, productId)
	})
}

func (s *Storage) All(ctx context.Context) ([]models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.All", func(ctx context.Context) ([]models.ShopcartItem, error) {
		return s.next.All(ctx)
	})
}

func (s *Storage) CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	return do(ctx, s, "database.retrying.CheckoutShopcart", func(ctx context.Context) ([]models.ShopcartItem, error) {
		return s.next.CheckoutShopcart(ctx, shopcartId)
	})
}

// Ping is not retried: health checks report the current state.
func (s *Storage) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
