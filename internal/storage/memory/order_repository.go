// Package memory содержит in-memory реализации хранилищ.
// Используется в тестах и для локального запуска без Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medisupply/sales/internal/domain"
)

// OrderRepository хранит заказы в памяти.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order

	// Счётчики дневной последовательности номеров заказов, ключ — YYYYMMDD.
	sequences map[string]int

	// now подменяется в тестах для детерминированных номеров.
	now func() time.Time
}

// NewOrderRepository создаёт пустое in-memory хранилище заказов.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:    make(map[string]domain.Order),
		sequences: make(map[string]int),
		now:       time.Now,
	}
}

// Create сохраняет заказ, присваивая ему идентификатор (если пуст),
// номер дневной последовательности и отметки времени.
func (r *OrderRepository) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.OrderNumber = r.nextOrderNumber(now)
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].CreatedAt = now
	}

	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// Get возвращает заказ по идентификатору.
func (r *OrderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает заказы по фильтру, свежие первыми.
func (r *OrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.SellerID != "" && order.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].OrderNumber > result[j].OrderNumber
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Update перезаписывает заказ целиком, сохраняя неизменяемые поля
// из существующей записи.
func (r *OrderRepository) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	now := r.now().UTC()

	order.OrderNumber = existing.OrderNumber
	order.CustomerID = existing.CustomerID
	order.SellerID = existing.SellerID
	order.SellerName = existing.SellerName
	order.OrderDate = existing.OrderDate
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = now

	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		if order.Items[i].CreatedAt.IsZero() {
			order.Items[i].CreatedAt = now
		}
	}

	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// Delete удаляет заказ вместе с позициями.
func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

// nextOrderNumber выдаёт следующий номер формата ORD-YYYYMMDD-NNNN.
// Вызывается под r.mu.
func (r *OrderRepository) nextOrderNumber(now time.Time) string {
	day := now.Format("20060102")
	r.sequences[day]++
	return fmt.Sprintf("ORD-%s-%04d", day, r.sequences[day])
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
