package memory

import (
	"context"
	"sync"

	"github.com/medisupply/sales/internal/domain"
)

// CustomerRepository хранит справочник клиентов в памяти.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

// NewCustomerRepository создаёт пустой справочник.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[string]domain.Customer)}
}

// Put добавляет или заменяет клиента. Используется при наполнении
// справочника в тестах и локальном запуске.
func (r *CustomerRepository) Put(customer domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r *CustomerRepository) Get(_ context.Context, id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}
