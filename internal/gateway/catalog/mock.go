package catalog

import (
	"context"
	"sync"

	"github.com/medisupply/sales/internal/domain"
)

// MockGateway — конфигурируемая заглушка CatalogGateway для тестов и
// локального запуска без сервиса каталога.
type MockGateway struct {
	mu       sync.Mutex
	Products map[string]domain.ProductInfo
	Err      error

	Calls int
}

// NewMockGateway возвращает mock с пустым каталогом.
func NewMockGateway() *MockGateway {
	return &MockGateway{Products: make(map[string]domain.ProductInfo)}
}

// Add регистрирует товар в заглушке.
func (m *MockGateway) Add(product domain.ProductInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[product.SKU] = product
}

// Product возвращает заранее настроенный товар, ошибку или ProductNotFoundError.
func (m *MockGateway) Product(_ context.Context, sku string) (domain.ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return domain.ProductInfo{}, m.Err
	}
	product, ok := m.Products[sku]
	if !ok {
		return domain.ProductInfo{}, &domain.ProductNotFoundError{SKU: sku}
	}
	return product, nil
}

var _ domain.CatalogGateway = (*MockGateway)(nil)
