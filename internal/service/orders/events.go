package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medisupply/sales/internal/domain"
)

// Типы доменных событий, попадающих в outbox.
const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderConfirmed = "order.confirmed"
	EventOrderDeleted   = "order.deleted"
)

// AggregateOrder — тип агрегата для сообщений outbox.
const AggregateOrder = "order"

type orderEventPayload struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	SellerID    string    `json:"seller_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// newOrderEvent собирает сообщение outbox по снимку заказа.
// Payload содержит только идентифицирующие поля и итог: потребители,
// которым нужен полный заказ, запрашивают его по order_id.
func newOrderEvent(eventType string, order domain.Order) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(orderEventPayload{
		EventType:   eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		SellerID:    order.SellerID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.InexactFloat64(),
		ItemCount:   len(order.Items),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}

	return domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: AggregateOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
