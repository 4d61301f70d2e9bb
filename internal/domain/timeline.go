package domain

import "time"

// Типы событий жизненного цикла заказа.
const (
	TimelineOrderCreated       = "OrderCreated"
	TimelineOrderStatusChanged = "OrderStatusChanged"
	TimelineOrderItemsReplaced = "OrderItemsReplaced"
	TimelineOrderDeleted       = "OrderDeleted"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Detail   string
	Occurred time.Time
}
