package mocks

import (
	"context"

	"shopcarts/internal/models"

	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

func (m *Service) ListItems(ctx context.Context, filter models.ListFilter) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Service) ReadShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, shopcartId)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Service) ReadItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

func (m *Service) CreateItem(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

func (m *Service) UpdateItem(ctx context.Context, key models.ItemKey, changes models.ItemChanges) (models.ShopcartItem, error) {
	args := m.Called(ctx, key, changes)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

func (m *Service) DeleteItem(ctx context.Context, key models.ItemKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Service) DeleteShopcart(ctx context.Context, shopcartId int) error {
	args := m.Called(ctx, shopcartId)
	return args.Error(0)
}

func (m *Service) CheckoutItem(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.ShopcartItem), args.Error(1)
}

func (m *Service) CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	args := m.Called(ctx, shopcartId)
	return args.Get(0).([]models.ShopcartItem), args.Error(1)
}

func (m *Service) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
