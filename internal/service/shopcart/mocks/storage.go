package mocks

import (
	"shopcarts/internal/models"

	"context"

	"github.com/stretchr/testify/mock"
)

type Storage struct {
	mock.Mock
}

func (m *Storage) Create(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

// Update returns the configured stored row after applying fn to it,
// so expectations are set with the row as it was before the update.
func (m *Storage) Update(ctx context.Context, key models.ItemKey, fn func(item *models.ShopcartItem) error) (models.ShopcartItem, error) {
	args := m.Called(ctx, key)
	if err := args.Error(1); err != nil {
		return models.ShopcartItem{}, err
	}

	item := args.Get(0).(models.ShopcartItem)
	if err := fn(&item); err != nil {
		return models.ShopcartItem{}, err
	}
	return item, nil
}

func (m *Storage) Delete(ctx context.Context, key models.ItemKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Storage) DeleteByShopcartId(ctx context.Context, shopcartId int) (int64, error) {
	args := m.Called(ctx, shopcartId)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Storage) Find(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

func (m *Storage) FindByShopcartId(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, shopcartId)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Storage) FindByProductId(ctx context.Context, productId int) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, productId)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Storage) All(ctx context.Context) ([]models.ShopcartItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Storage) CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, shopcartId)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Storage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type Publisher struct {
	mock.Mock
}

func (m *Publisher) PublishCheckedOut(ctx context.Context, shopcartId int, items []models.ShopcartItem) error {
	args := m.Called(ctx, shopcartId, items)
	return args.Error(0)
}
