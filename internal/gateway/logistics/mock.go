package logistics

import (
	"context"
	"sync"

	"github.com/medisupply/sales/internal/domain"
)

// MockGateway — конфигурируемая заглушка InventoryGateway для тестов и
// локального запуска.
type MockGateway struct {
	mu sync.Mutex
	// Stock: sku -> остатки по центрам.
	Stock map[string][]domain.CenterStock
	Err   error

	Calls int
}

// NewMockGateway возвращает mock без остатков.
func NewMockGateway() *MockGateway {
	return &MockGateway{Stock: make(map[string][]domain.CenterStock)}
}

// Set задаёт остатки по SKU.
func (m *MockGateway) Set(sku string, centers ...domain.CenterStock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stock[sku] = centers
}

// Reserve применяет ту же политику выбора центра, что и боевой клиент.
func (m *MockGateway) Reserve(_ context.Context, sku string, quantity int, preferredCenter string) (domain.StockReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return domain.StockReservation{}, m.Err
	}
	return SelectCenter(sku, quantity, preferredCenter, m.Stock[sku])
}

var _ domain.InventoryGateway = (*MockGateway)(nil)
