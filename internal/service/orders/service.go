package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/metrics"
)

// Service реализует сценарии работы с заказами поверх билдера и хранилища.
// Запись в outbox и timeline не входит в транзакцию заказа для memory-хранилища;
// postgres-реализация репозитория объединяет их через общий пул соединений.
type Service struct {
	repo     domain.OrderRepository
	builder  *Builder
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewService создаёт сервис заказов.
func NewService(
	repo domain.OrderRepository,
	builder *Builder,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Logger,
	orderMetrics *metrics.OrderMetrics,
) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		repo:     repo,
		builder:  builder,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger.WithField("component", "order_service"),
		metrics:  orderMetrics,
	}
}

// CreateOrder собирает заказ по запросу, сохраняет его и публикует событие.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	order, err := s.builder.Build(ctx, req)
	if err != nil {
		s.metrics.RecordOrderFailure(failureReason(err))
		return domain.Order{}, err
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.metrics.RecordOrderFailure("storage")
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated()
	s.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"customer_id":  created.CustomerID,
		"total_amount": created.TotalAmount.String(),
		"items":        len(created.Items),
	}).Info("Order created")

	s.recordTimeline(ctx, created.ID, domain.TimelineOrderCreated,
		fmt.Sprintf("Order %s created with %d item(s)", created.OrderNumber, len(created.Items)))
	s.enqueueEvent(ctx, EventOrderCreated, created)

	return created, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return s.repo.Get(ctx, id)
}

// ListOrders возвращает заказы по фильтру.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return s.repo.List(ctx, filter)
}

// UpdateOrder применяет частичное изменение к заказу в статусе pending.
// Замена позиций проходит тот же конвейер каталог/сток, что и создание.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if patch.Empty() {
		return order, nil
	}

	previousStatus := order.Status

	if err := order.ApplyScalarPatch(patch); err != nil {
		s.metrics.RecordOrderFailure(failureReason(err))
		return domain.Order{}, err
	}

	if patch.Items != nil {
		items, err := s.builder.ResolveItems(ctx, patch.Items, order.PreferredDistributionCenter)
		if err != nil {
			s.metrics.RecordOrderFailure(failureReason(err))
			return domain.Order{}, err
		}
		order.Items = items
		order.RecalculateTotals()
	}

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		s.metrics.RecordOrderFailure("storage")
		return domain.Order{}, err
	}

	s.metrics.RecordOrderUpdated()
	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"status":   updated.Status,
	}).Info("Order updated")

	if patch.Items != nil {
		s.recordTimeline(ctx, updated.ID, domain.TimelineOrderItemsReplaced,
			fmt.Sprintf("Items replaced, %d item(s), total %s", len(updated.Items), updated.TotalAmount.String()))
	}
	if updated.Status != previousStatus {
		s.recordTimeline(ctx, updated.ID, domain.TimelineOrderStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", previousStatus, updated.Status))
	}

	eventType := EventOrderUpdated
	if updated.Status == domain.OrderStatusConfirmed && previousStatus != domain.OrderStatusConfirmed {
		eventType = EventOrderConfirmed
	}
	s.enqueueEvent(ctx, eventType, updated)

	return updated, nil
}

// DeleteOrder удаляет заказ вместе с позициями.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, order.ID); err != nil {
		s.metrics.RecordOrderFailure("storage")
		return err
	}

	s.metrics.RecordOrderDeleted()
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	}).Info("Order deleted")

	s.recordTimeline(ctx, order.ID, domain.TimelineOrderDeleted,
		fmt.Sprintf("Order %s deleted", order.OrderNumber))
	s.enqueueEvent(ctx, EventOrderDeleted, order)

	return nil
}

// Timeline возвращает события жизненного цикла заказа.
func (s *Service) Timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	if _, err := s.repo.Get(ctx, orderID); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(ctx, orderID)
}

// recordTimeline пишет событие жизненного цикла. Ошибка записи не прерывает
// основную операцию: timeline вспомогателен по отношению к самому заказу.
func (s *Service) recordTimeline(ctx context.Context, orderID, eventType, detail string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Detail:   detail,
		Occurred: time.Now().UTC(),
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   orderID,
			"event_type": eventType,
		}).Error("Failed to append timeline event")
	}
}

// enqueueEvent кладёт доменное событие в outbox. Ошибка логируется, но не
// откатывает операцию: заказ уже сохранён, событие можно восстановить вручную.
func (s *Service) enqueueEvent(ctx context.Context, eventType string, order domain.Order) {
	if s.outbox == nil {
		return
	}
	msg, err := newOrderEvent(eventType, order)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Error("Failed to build outbox event")
		return
	}
	if _, err := s.outbox.Enqueue(ctx, msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Error("Failed to enqueue outbox event")
	}
}

// failureReason сводит ошибку к метке метрики.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "stock"
	case errors.Is(err, domain.ErrUnavailable):
		return "upstream"
	default:
		return "internal"
	}
}
