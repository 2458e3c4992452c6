package service_test

import (
	"context"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/sqs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCatalogStore is a mock implementation of repository.CatalogStore
type MockCatalogStore struct {
	mock.Mock
}

func products(args mock.Arguments) ([]*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockCatalogStore) ListAll(ctx context.Context) ([]*model.Product, error) {
	return products(m.Called(ctx))
}

func (m *MockCatalogStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogStore) ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	return products(m.Called(ctx, categoryID))
}

func (m *MockCatalogStore) ListBySupplier(ctx context.Context, supplierID int64) ([]*model.Product, error) {
	return products(m.Called(ctx, supplierID))
}

func (m *MockCatalogStore) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	return products(m.Called(ctx))
}

func (m *MockCatalogStore) Search(ctx context.Context, term string) ([]*model.Product, error) {
	return products(m.Called(ctx, term))
}

func (m *MockCatalogStore) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.Product, error) {
	return products(m.Called(ctx, minPrice, maxPrice))
}

func (m *MockCatalogStore) GetHistory(ctx context.Context, productID int64) ([]*model.ProductHistory, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProductHistory), args.Error(1)
}

func (m *MockCatalogStore) GetCategoryHierarchy(ctx context.Context) ([]*model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Category), args.Error(1)
}

func (m *MockCatalogStore) GetStats(ctx context.Context) (*model.ProductStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductStats), args.Error(1)
}

func (m *MockCatalogStore) Insert(ctx context.Context, product *model.Product) (int64, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogStore) Update(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockCatalogStore) Delete(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockCatalogStore) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	return m.Called(ctx, productID, newQuantity).Error(0)
}

func (m *MockCatalogStore) RunInTransaction(ctx context.Context, ops ...repository.TxOperation) error {
	args := m.Called(ctx, ops)
	return args.Error(0)
}

func (m *MockCatalogStore) Close() error {
	return m.Called().Error(0)
}

// MockStatsRefresher is a mock implementation of service.StatsRefresher
type MockStatsRefresher struct {
	mock.Mock
}

func (m *MockStatsRefresher) Refresh(ctx context.Context, at time.Time) (*model.ProductStats, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductStats), args.Error(1)
}

// MockHistoryFeed is a mock implementation of service.HistoryFeed
type MockHistoryFeed struct {
	mock.Mock
}

func (m *MockHistoryFeed) ListPending(ctx context.Context, limit int) ([]*model.ProductHistory, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProductHistory), args.Error(1)
}

func (m *MockHistoryFeed) MarkRelayed(ctx context.Context, historyID int64, at time.Time) error {
	return m.Called(ctx, historyID, at).Error(0)
}

// MockPublisher is a mock implementation of service.AuditPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAuditMessage(ctx context.Context, msg sqs.AuditMessage) error {
	return m.Called(ctx, msg).Error(0)
}
