package domain

import "context"

// OrderFilter задаёт условия выборки заказов.
type OrderFilter struct {
	CustomerID string
	SellerID   string
	Status     OrderStatus
	Limit      int
}

// OrderRepository описывает требования к хранилищу заказов.
// Все операции записи затрагивают заказ вместе с позициями как единое целое.
type OrderRepository interface {
	// Create сохраняет новый заказ и его позиции одной транзакцией,
	// присваивая заказу порядковый номер дня (ORD-YYYYMMDD-NNNN).
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает заказы по фильтру, свежие первыми.
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	// Update перезаписывает изменяемые поля заказа и целиком заменяет
	// его позиции одной транзакцией.
	Update(ctx context.Context, order Order) (Order, error)
	// Delete удаляет заказ вместе с позициями (cascade).
	Delete(ctx context.Context, id string) error
}

// CustomerRepository описывает доступ к справочнику клиентов.
type CustomerRepository interface {
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(ctx context.Context, id string) (Customer, error)
}
