package shopcartservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	databaseerrors "shopcarts/internal/database"
	"shopcarts/internal/events"
	"shopcarts/internal/models"
	serviceerrors "shopcarts/internal/service"
	"shopcarts/pkg/lib/logger/sl"
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

type EventPublisher interface {
	PublishCheckedOut(ctx context.Context, shopcartId int, items []models.ShopcartItem) error
}

type ShopcartService struct {
	log       *slog.Logger
	storage   ShopcartItemStorage
	publisher EventPublisher
}

// New creates the service. A nil publisher disables checkout events.
func New(log *slog.Logger, storage ShopcartItemStorage, publisher EventPublisher) *ShopcartService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &ShopcartService{
		log:       log,
		storage:   storage,
		publisher: publisher,
	}
}

// ListItems returns the items matching filter in insertion order, or every item when filter is empty.
func (s *ShopcartService) ListItems(ctx context.Context, filter models.ListFilter) ([]models.ShopcartItem, error) {
	const op = "service.shopcart.ListItems"
	log := s.log.With("op", op)

	if err := checkContext(ctx, log, op); err != nil {
		return nil, err
	}

	var (
		items []models.ShopcartItem
		err   error
	)
	switch {
	case filter.ShopcartId != nil && filter.ProductId != nil:
		var item models.ShopcartItem
		item, err = s.storage.Find(ctx, models.ItemKey{ShopcartId: *filter.ShopcartId, ProductId: *filter.ProductId})
		if errors.Is(err, databaseerrors.ErrNotFound) {
			return []models.ShopcartItem{}, nil
		}
		items = []models.ShopcartItem{item}
	case filter.ShopcartId != nil:
		items, err = s.storage.FindByShopcartId(ctx, *filter.ShopcartId)
	case filter.ProductId != nil:
		items, err = s.storage.FindByProductId(ctx, *filter.ProductId)
	default:
		items, err = s.storage.All(ctx)
	}
	if err != nil {
		return nil, classify(log, op, err, "Failed to list shopcart items")
	}

	if items == nil {
		items = []models.ShopcartItem{}
	}
	return items, nil
}

// ReadShopcart returns the items of a shopcart; a shopcart without items is not found.
func (s *ShopcartService) ReadShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	const op = "service.shopcart.ReadShopcart"
	log := s.log.With("op", op, "shopcart_id", shopcartId)

	if err := checkContext(ctx, log, op); err != nil {
		return nil, err
	}

	items, err := s.storage.FindByShopcartId(ctx, shopcartId)
	if err != nil {
		return nil, classify(log, op, err, "Failed to get shopcart items")
	}

	if len(items) == 0 {
		log.Warn("shopcart is empty", sl.Err(serviceerrors.ErrNotFound))
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrNotFound)
	}

	return items, nil
}

func (s *ShopcartService) ReadItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	const op = "service.shopcart.ReadItem"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := checkContext(ctx, log, op); err != nil {
		return models.ShopcartItem{}, err
	}

	item, err := s.storage.Find(ctx, key)
	if err != nil {
		return models.ShopcartItem{}, classify(log, op, err, "Failed to get shopcart item")
	}

	return item, nil
}

// CreateItem stores a new item; the (shopcart_id, product_id) pair must not exist yet.
func (s *ShopcartService) CreateItem(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error) {
	const op = "service.shopcart.CreateItem"
	log := s.log.With("op", op, "shopcart_id", item.ShopcartId, "product_id", item.ProductId)

	if err := checkContext(ctx, log, op); err != nil {
		return models.ShopcartItem{}, err
	}

	if item.TimeAdded.IsZero() {
		item.TimeAdded = time.Now().UTC()
	}

	created, err := s.storage.Create(ctx, item)
	if err != nil {
		return models.ShopcartItem{}, classify(log, op, err, "Failed to create shopcart item")
	}

	log.Info("Shopcart item created")
	return created, nil
}

// UpdateItem bumps the stored quantity by one and applies changes.
// time_added is reset to now unless changes carries one.
func (s *ShopcartService) UpdateItem(ctx context.Context, key models.ItemKey, changes models.ItemChanges) (models.ShopcartItem, error) {
	const op = "service.shopcart.UpdateItem"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := checkContext(ctx, log, op); err != nil {
		return models.ShopcartItem{}, err
	}

	timeAdded := time.Now().UTC()
	if changes.TimeAdded != nil {
		timeAdded = *changes.TimeAdded
	}

	updated, err := s.storage.Update(ctx, key, func(stored *models.ShopcartItem) error {
		if stored.Quantity >= models.MaxQuantity {
			return serviceerrors.ErrQuantityLimit
		}
		stored.Quantity++
		stored.TimeAdded = timeAdded
		if changes.Price != nil {
			stored.Price = *changes.Price
		}
		if changes.Checkout != nil {
			stored.Checkout = *changes.Checkout
		}
		return nil
	})
	if err != nil {
		return models.ShopcartItem{}, classify(log, op, err, "Failed to update shopcart item")
	}

	log.Info("Shopcart item updated", "quantity", updated.Quantity)
	return updated, nil
}

// DeleteItem removes one item. Removing a missing item succeeds.
func (s *ShopcartService) DeleteItem(ctx context.Context, key models.ItemKey) error {
	const op = "service.shopcart.DeleteItem"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := checkContext(ctx, log, op); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		return classify(log, op, err, "Failed to delete shopcart item")
	}

	return nil
}

// DeleteShopcart removes every item of the shopcart. Removing an empty shopcart succeeds.
func (s *ShopcartService) DeleteShopcart(ctx context.Context, shopcartId int) error {
	const op = "service.shopcart.DeleteShopcart"
	log := s.log.With("op", op, "shopcart_id", shopcartId)

	if err := checkContext(ctx, log, op); err != nil {
		return err
	}

	deleted, err := s.storage.DeleteByShopcartId(ctx, shopcartId)
	if err != nil {
		return classify(log, op, err, "Failed to delete shopcart")
	}

	log.Info("Shopcart deleted", "items", deleted)
	return nil
}

// CheckoutItem flags one item as checked out. Checking out twice is not an error,
// and only the first checkout publishes an event.
func (s *ShopcartService) CheckoutItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	const op = "service.shopcart.CheckoutItem"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := checkContext(ctx, log, op); err != nil {
		return models.ShopcartItem{}, err
	}

	var changed bool
	item, err := s.storage.Update(ctx, key, func(stored *models.ShopcartItem) error {
		changed = stored.Checkout != models.CheckedOut
		stored.Checkout = models.CheckedOut
		return nil
	})
	if err != nil {
		return models.ShopcartItem{}, classify(log, op, err, "Failed to checkout shopcart item")
	}

	if !changed {
		log.Debug("Shopcart item already checked out")
		return item, nil
	}

	s.publishCheckedOut(ctx, log, key.ShopcartId, []models.ShopcartItem{item})
	return item, nil
}

// CheckoutShopcart flags every item of the shopcart as checked out.
func (s *ShopcartService) CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	const op = "service.shopcart.CheckoutShopcart"
	log := s.log.With("op", op, "shopcart_id", shopcartId)

	if err := checkContext(ctx, log, op); err != nil {
		return nil, err
	}

	items, err := s.storage.CheckoutShopcart(ctx, shopcartId)
	if err != nil {
		return nil, classify(log, op, err, "Failed to checkout shopcart")
	}

	if len(items) == 0 {
		log.Warn("shopcart is empty", sl.Err(serviceerrors.ErrNotFound))
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrNotFound)
	}

	s.publishCheckedOut(ctx, log, shopcartId, items)
	return items, nil
}

func (s *ShopcartService) Ping(ctx context.Context) error {
	const op = "service.shopcart.Ping"

	if err := s.storage.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, serviceerrors.ErrUnavailable, err)
	}
	return nil
}

// A failed publish is logged only; the checkout itself is already committed.
func (s *ShopcartService) publishCheckedOut(ctx context.Context, log *slog.Logger, shopcartId int, items []models.ShopcartItem) {
	if err := s.publisher.PublishCheckedOut(ctx, shopcartId, items); err != nil {
		log.Error("Failed to publish checkout event", sl.Err(err))
	}
}

func checkContext(ctx context.Context, log *slog.Logger, op string) error {
	select {
	case <-ctx.Done():
		return classify(log, op, ctx.Err(), "unexpected error")
	default:
		return nil
	}
}

// classify maps storage and context errors onto service errors.
func classify(log *slog.Logger, op string, err error, msg string) error {
	switch {
	case errors.Is(err, context.Canceled):
		log.Warn("context canceled", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("deadline exceeded", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrDeadlineExceeded)
	case errors.Is(err, databaseerrors.ErrNotFound):
		log.Warn("shopcart item not found", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrNotFound)
	case errors.Is(err, databaseerrors.ErrAlreadyExists):
		log.Warn("shopcart item already exists", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrAlreadyExists)
	case errors.Is(err, serviceerrors.ErrQuantityLimit):
		log.Warn("quantity limit reached", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrQuantityLimit)
	case errors.Is(err, databaseerrors.ErrUnavailable):
		log.Error("storage unavailable", sl.Err(err))
		return fmt.Errorf("%s: %w", op, serviceerrors.ErrUnavailable)
	default:
		log.Error(msg, sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
}
