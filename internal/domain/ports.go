package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductInfo — ответ каталога на запрос по SKU.
type ProductInfo struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	IsActive  bool
}

// CatalogGateway описывает взаимодействие с сервисом каталога товаров.
type CatalogGateway interface {
	// Product возвращает данные товара или ProductNotFoundError /
	// UpstreamUnavailableError. Неактивный товар возвращается без ошибки —
	// решение об отказе принимает вызывающая сторона.
	Product(ctx context.Context, sku string) (ProductInfo, error)
}

// CenterStock — остаток товара в одном центре дистрибуции.
type CenterStock struct {
	Code      string
	Name      string
	Available int
}

// StockReservation — результат проверки стока по позиции.
// Confirmed фиксируется на позиции заказа как снимок на момент создания;
// фактическое списание стока остаётся за сервисом логистики.
type StockReservation struct {
	DistributionCenterCode string
	Confirmed              bool
}

// InventoryGateway описывает взаимодействие с сервисом складских остатков.
type InventoryGateway interface {
	// Reserve подбирает центр дистрибуции под sku/quantity. Возвращает
	// InsufficientStockError, если ни один центр не покрывает количество,
	// и UpstreamUnavailableError при недоступности сервиса.
	Reserve(ctx context.Context, sku string, quantity int, preferredCenter string) (StockReservation, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
