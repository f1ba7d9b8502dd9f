package shopcartservice_test

import (
	databaseerrors "shopcarts/internal/database"
	"shopcarts/internal/models"
	serviceerrors "shopcarts/internal/service"
	shopcartservice "shopcarts/internal/service/shopcart"
	"shopcarts/internal/service/shopcart/mocks"
	"shopcarts/pkg/lib/logger/slogdiscard"

	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(storage *mocks.Storage, publisher *mocks.Publisher) *shopcartservice.ShopcartService {
	logger := slogdiscard.NewDiscardLogger()
	if publisher == nil {
		return shopcartservice.New(logger, storage, nil)
	}
	return shopcartservice.New(logger, storage, publisher)
}

func intPtr(v int) *int {
	return &v
}

func testItem(shopcartId, productId int) models.ShopcartItem {
	return models.ShopcartItem{
		ShopcartId: shopcartId,
		ProductId:  productId,
		Quantity:   1,
		Price:      models.MustPrice("5.99"),
		TimeAdded:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Checkout:   models.NotCheckedOut,
	}
}

func TestContextCanceled(t *testing.T) {
	mockStorage := new(mocks.Storage)
	svc := newTestService(mockStorage, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListItems(ctx, models.ListFilter{})
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	_, err = svc.CreateItem(ctx, testItem(1, 1))
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	_, err = svc.UpdateItem(ctx, models.ItemKey{ShopcartId: 1, ProductId: 1}, models.ItemChanges{})
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	err = svc.DeleteItem(ctx, models.ItemKey{ShopcartId: 1, ProductId: 1})
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	err = svc.DeleteShopcart(ctx, 1)
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	_, err = svc.CheckoutShopcart(ctx, 1)
	assert.ErrorIs(t, err, serviceerrors.ErrContextCanceled)

	mockStorage.AssertExpectations(t)
}

func TestDeadlineExceeded(t *testing.T) {
	mockStorage := new(mocks.Storage)
	svc := newTestService(mockStorage, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()
	time.Sleep(time.Millisecond * 15)

	_, err := svc.ReadShopcart(ctx, 1)
	assert.ErrorIs(t, err, serviceerrors.ErrDeadlineExceeded)

	_, err = svc.ReadItem(ctx, models.ItemKey{ShopcartId: 1, ProductId: 1})
	assert.ErrorIs(t, err, serviceerrors.ErrDeadlineExceeded)

	_, err = svc.CheckoutItem(ctx, models.ItemKey{ShopcartId: 1, ProductId: 1})
	assert.ErrorIs(t, err, serviceerrors.ErrDeadlineExceeded)

	mockStorage.AssertExpectations(t)
}

func TestListItems(t *testing.T) {
	all := []models.ShopcartItem{testItem(1234, 100), testItem(1235, 100)}

	tests := []struct {
		name      string
		filter    models.ListFilter
		setupMock func(s *mocks.Storage)
		want      []models.ShopcartItem
	}{
		{
			name:   "No filter",
			filter: models.ListFilter{},
			setupMock: func(s *mocks.Storage) {
				s.On("All", mock.Anything).Return(all, nil)
			},
			want: all,
		},
		{
			name:   "Shopcart filter",
			filter: models.ListFilter{ShopcartId: intPtr(1234)},
			setupMock: func(s *mocks.Storage) {
				s.On("FindByShopcartId", mock.Anything, 1234).Return(all[:1], nil)
			},
			want: all[:1],
		},
		{
			name:   "Product filter",
			filter: models.ListFilter{ProductId: intPtr(100)},
			setupMock: func(s *mocks.Storage) {
				s.On("FindByProductId", mock.Anything, 100).Return(all, nil)
			},
			want: all,
		},
		{
			name:   "Both filters",
			filter: models.ListFilter{ShopcartId: intPtr(1235), ProductId: intPtr(100)},
			setupMock: func(s *mocks.Storage) {
				s.On("Find", mock.Anything, models.ItemKey{ShopcartId: 1235, ProductId: 100}).Return(all[1], nil)
			},
			want: all[1:],
		},
		{
			name:   "Both filters without match",
			filter: models.ListFilter{ShopcartId: intPtr(1), ProductId: intPtr(2)},
			setupMock: func(s *mocks.Storage) {
				s.On("Find", mock.Anything, models.ItemKey{ShopcartId: 1, ProductId: 2}).
					Return(models.ShopcartItem{}, databaseerrors.ErrNotFound)
			},
			want: []models.ShopcartItem{},
		},
		{
			name:   "Empty table",
			filter: models.ListFilter{},
			setupMock: func(s *mocks.Storage) {
				s.On("All", mock.Anything).Return([]models.ShopcartItem(nil), nil)
			},
			want: []models.ShopcartItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStorage := new(mocks.Storage)
			tt.setupMock(mockStorage)
			svc := newTestService(mockStorage, nil)

			got, err := svc.ListItems(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			mockStorage.AssertExpectations(t)
		})
	}
}

func TestListItems_StorageError(t *testing.T) {
	mockStorage := new(mocks.Storage)
	mockStorage.On("All", mock.Anything).Return([]models.ShopcartItem(nil), errors.New("db error"))
	svc := newTestService(mockStorage, nil)

	_, err := svc.ListItems(context.Background(), models.ListFilter{})
	assert.Error(t, err)
	mockStorage.AssertExpectations(t)
}

func TestReadShopcart(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		items := []models.ShopcartItem{testItem(1234, 100), testItem(1234, 101)}
		mockStorage.On("FindByShopcartId", mock.Anything, 1234).Return(items, nil)
		svc := newTestService(mockStorage, nil)

		got, err := svc.ReadShopcart(context.Background(), 1234)
		require.NoError(t, err)
		assert.Equal(t, items, got)
	})

	t.Run("Empty shopcart", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("FindByShopcartId", mock.Anything, 1234).Return([]models.ShopcartItem{}, nil)
		svc := newTestService(mockStorage, nil)

		_, err := svc.ReadShopcart(context.Background(), 1234)
		assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	})
}

func TestReadItem_NotFound(t *testing.T) {
	mockStorage := new(mocks.Storage)
	key := models.ItemKey{ShopcartId: 0, ProductId: 0}
	mockStorage.On("Find", mock.Anything, key).Return(models.ShopcartItem{}, databaseerrors.ErrNotFound)
	svc := newTestService(mockStorage, nil)

	_, err := svc.ReadItem(context.Background(), key)
	assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	mockStorage.AssertExpectations(t)
}

func TestCreateItem(t *testing.T) {
	tests := []struct {
		name        string
		item        models.ShopcartItem
		setupMock   func(s *mocks.Storage)
		expectedErr error
	}{
		{
			name: "Success",
			item: testItem(1234, 5678),
			setupMock: func(s *mocks.Storage) {
				s.On("Create", mock.Anything, testItem(1234, 5678)).Return(testItem(1234, 5678), nil)
			},
		},
		{
			name: "Duplicate",
			item: testItem(1234, 5678),
			setupMock: func(s *mocks.Storage) {
				s.On("Create", mock.Anything, testItem(1234, 5678)).
					Return(models.ShopcartItem{}, databaseerrors.ErrAlreadyExists)
			},
			expectedErr: serviceerrors.ErrAlreadyExists,
		},
		{
			name: "Storage unavailable",
			item: testItem(1234, 5678),
			setupMock: func(s *mocks.Storage) {
				s.On("Create", mock.Anything, testItem(1234, 5678)).
					Return(models.ShopcartItem{}, databaseerrors.ErrUnavailable)
			},
			expectedErr: serviceerrors.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStorage := new(mocks.Storage)
			tt.setupMock(mockStorage)
			svc := newTestService(mockStorage, nil)

			created, err := svc.CreateItem(context.Background(), tt.item)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.item.Key(), created.Key())
			}

			mockStorage.AssertExpectations(t)
		})
	}
}

func TestCreateItem_DefaultsTimeAdded(t *testing.T) {
	mockStorage := new(mocks.Storage)
	mockStorage.On("Create", mock.Anything, mock.MatchedBy(func(item models.ShopcartItem) bool {
		return !item.TimeAdded.IsZero()
	})).Return(testItem(1, 2), nil)
	svc := newTestService(mockStorage, nil)

	item := testItem(1, 2)
	item.TimeAdded = time.Time{}
	_, err := svc.CreateItem(context.Background(), item)
	require.NoError(t, err)
	mockStorage.AssertExpectations(t)
}

func TestUpdateItem_IncrementsQuantity(t *testing.T) {
	mockStorage := new(mocks.Storage)
	stored := testItem(1234, 5678)
	stored.Quantity = 4
	mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)
	svc := newTestService(mockStorage, nil)

	price := models.MustPrice("3.9")
	checkout := models.CheckedOut
	updated, err := svc.UpdateItem(context.Background(), stored.Key(), models.ItemChanges{
		Price:    &price,
		Checkout: &checkout,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, "3.90", updated.Price.StringFixed(2))
	assert.Equal(t, models.CheckedOut, updated.Checkout)
	assert.True(t, updated.TimeAdded.After(stored.TimeAdded))
	mockStorage.AssertExpectations(t)
}

func TestUpdateItem_KeepsOmittedFields(t *testing.T) {
	mockStorage := new(mocks.Storage)
	stored := testItem(1234, 5678)
	mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)
	svc := newTestService(mockStorage, nil)

	timeAdded := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err := svc.UpdateItem(context.Background(), stored.Key(), models.ItemChanges{TimeAdded: &timeAdded})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)
	assert.Equal(t, "5.99", updated.Price.StringFixed(2))
	assert.Equal(t, models.NotCheckedOut, updated.Checkout)
	assert.Equal(t, timeAdded, updated.TimeAdded)
}

func TestUpdateItem_QuantityLimit(t *testing.T) {
	mockStorage := new(mocks.Storage)
	stored := testItem(1234, 5678)
	stored.Quantity = models.MaxQuantity
	mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)
	svc := newTestService(mockStorage, nil)

	_, err := svc.UpdateItem(context.Background(), stored.Key(), models.ItemChanges{})
	assert.ErrorIs(t, err, serviceerrors.ErrQuantityLimit)
	mockStorage.AssertExpectations(t)
}

func TestUpdateItem_NotFound(t *testing.T) {
	mockStorage := new(mocks.Storage)
	key := models.ItemKey{ShopcartId: 123456, ProductId: 123}
	mockStorage.On("Update", mock.Anything, key).Return(models.ShopcartItem{}, databaseerrors.ErrNotFound)
	svc := newTestService(mockStorage, nil)

	_, err := svc.UpdateItem(context.Background(), key, models.ItemChanges{})
	assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	mockStorage.AssertExpectations(t)
}

func TestDeleteItem(t *testing.T) {
	mockStorage := new(mocks.Storage)
	key := models.ItemKey{ShopcartId: 1234, ProductId: 100}
	mockStorage.On("Delete", mock.Anything, key).Return(nil)
	svc := newTestService(mockStorage, nil)

	assert.NoError(t, svc.DeleteItem(context.Background(), key))
	mockStorage.AssertExpectations(t)
}

func TestDeleteShopcart(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("DeleteByShopcartId", mock.Anything, 1234).Return(int64(0), nil)
		svc := newTestService(mockStorage, nil)

		assert.NoError(t, svc.DeleteShopcart(context.Background(), 1234))
		mockStorage.AssertExpectations(t)
	})

	t.Run("Storage error", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("DeleteByShopcartId", mock.Anything, 1234).Return(int64(0), errors.New("db error"))
		svc := newTestService(mockStorage, nil)

		assert.Error(t, svc.DeleteShopcart(context.Background(), 1234))
		mockStorage.AssertExpectations(t)
	})
}

func TestCheckoutItem(t *testing.T) {
	t.Run("Success publishes event", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockPublisher := new(mocks.Publisher)
		stored := testItem(1234, 5678)
		mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)

		checkedOut := stored
		checkedOut.Checkout = models.CheckedOut
		mockPublisher.On("PublishCheckedOut", mock.Anything, 1234, []models.ShopcartItem{checkedOut}).Return(nil)

		svc := newTestService(mockStorage, mockPublisher)
		item, err := svc.CheckoutItem(context.Background(), stored.Key())
		require.NoError(t, err)
		assert.Equal(t, models.CheckedOut, item.Checkout)

		mockStorage.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Already checked out does not publish again", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockPublisher := new(mocks.Publisher)
		stored := testItem(1234, 5678)
		stored.Checkout = models.CheckedOut
		mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)

		svc := newTestService(mockStorage, mockPublisher)
		item, err := svc.CheckoutItem(context.Background(), stored.Key())
		require.NoError(t, err)
		assert.Equal(t, models.CheckedOut, item.Checkout)
		mockPublisher.AssertNotCalled(t, "PublishCheckedOut", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Publish failure is not fatal", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockPublisher := new(mocks.Publisher)
		stored := testItem(1234, 5678)
		mockStorage.On("Update", mock.Anything, stored.Key()).Return(stored, nil)
		mockPublisher.On("PublishCheckedOut", mock.Anything, 1234, mock.Anything).Return(errors.New("broker down"))

		svc := newTestService(mockStorage, mockPublisher)
		_, err := svc.CheckoutItem(context.Background(), stored.Key())
		assert.NoError(t, err)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockPublisher := new(mocks.Publisher)
		key := models.ItemKey{ShopcartId: 12345, ProductId: 100}
		mockStorage.On("Update", mock.Anything, key).Return(models.ShopcartItem{}, databaseerrors.ErrNotFound)

		svc := newTestService(mockStorage, mockPublisher)
		_, err := svc.CheckoutItem(context.Background(), key)
		assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
		mockPublisher.AssertNotCalled(t, "PublishCheckedOut", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckoutShopcart(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockPublisher := new(mocks.Publisher)
		items := []models.ShopcartItem{testItem(1234, 100), testItem(1234, 101)}
		for i := range items {
			items[i].Checkout = models.CheckedOut
		}
		mockStorage.On("CheckoutShopcart", mock.Anything, 1234).Return(items, nil)
		mockPublisher.On("PublishCheckedOut", mock.Anything, 1234, items).Return(nil)

		svc := newTestService(mockStorage, mockPublisher)
		got, err := svc.CheckoutShopcart(context.Background(), 1234)
		require.NoError(t, err)
		for _, item := range got {
			assert.Equal(t, models.CheckedOut, item.Checkout)
		}

		mockStorage.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Empty shopcart", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("CheckoutShopcart", mock.Anything, 1234).Return([]models.ShopcartItem{}, nil)

		svc := newTestService(mockStorage, nil)
		_, err := svc.CheckoutShopcart(context.Background(), 1234)
		assert.ErrorIs(t, err, serviceerrors.ErrNotFound)
	})
}

func TestPing(t *testing.T) {
	mockStorage := new(mocks.Storage)
	mockStorage.On("Ping", mock.Anything).Return(errors.New("down")).Once()
	mockStorage.On("Ping", mock.Anything).Return(nil).Once()
	svc := newTestService(mockStorage, nil)

	assert.ErrorIs(t, svc.Ping(context.Background()), serviceerrors.ErrUnavailable)
	assert.NoError(t, svc.Ping(context.Background()))
}
