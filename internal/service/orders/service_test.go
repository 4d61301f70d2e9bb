package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/storage/memory"
)

type serviceFixture struct {
	*builderFixture
	repo     *memory.OrderRepository
	timeline *memory.TimelineRepository
	outbox   *memory.OutboxRepository
	service  *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		builderFixture: newBuilderFixture(),
		repo:           memory.NewOrderRepository(),
		timeline:       memory.NewTimelineRepository(),
		outbox:         memory.NewOutboxRepository(),
	}
	f.service = NewService(f.repo, f.builder, f.timeline, f.outbox, nil, nil)
	return f
}

func (f *serviceFixture) createOrder(t *testing.T) domain.Order {
	t.Helper()
	order, err := f.service.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)
	return order
}

func TestServiceCreateOrder(t *testing.T) {
	f := newServiceFixture()

	order := f.createOrder(t)

	assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	stored, err := f.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)

	events, err := f.timeline.List(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.TimelineOrderCreated, events[0].Type)

	pending, err := f.outbox.PullPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, EventOrderCreated, pending[0].EventType)
	assert.Equal(t, order.ID, pending[0].AggregateID)
}

func TestServiceCreateOrderFailureLeavesNoTrace(t *testing.T) {
	f := newServiceFixture()
	f.inventory.Set("JER-001", domain.CenterStock{Code: "DC-BOG", Available: 2})

	_, err := f.service.CreateOrder(context.Background(), validCreateRequest())
	require.ErrorIs(t, err, domain.ErrConflict)

	orders, err := f.repo.List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	pending, _ := f.outbox.PullPending(context.Background(), 10)
	assert.Empty(t, pending)
}

func TestServiceGetOrder(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	got, err := f.service.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.service.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.service.GetOrder(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestServiceListOrders(t *testing.T) {
	f := newServiceFixture()
	f.createOrder(t)
	f.createOrder(t)

	orders, err := f.service.ListOrders(context.Background(), domain.OrderFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.service.ListOrders(context.Background(), domain.OrderFilter{CustomerID: "other"})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.OrderStatus) *domain.OrderStatus { return &s }

func TestServiceUpdateScalarFields(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	updated, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Notes:         strPtr("entregar en porteria"),
		PaymentMethod: strPtr("transferencia"),
	})
	require.NoError(t, err)

	assert.Equal(t, "entregar en porteria", updated.Notes)
	assert.Equal(t, "transferencia", updated.PaymentMethod)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)
	assert.True(t, updated.TotalAmount.Equal(order.TotalAmount), "totals must not change")

	pending, _ := f.outbox.PullPending(context.Background(), 10)
	require.Len(t, pending, 2)
	assert.Equal(t, EventOrderUpdated, pending[1].EventType)
}

func TestServiceUpdateEmptyPatchIsNoop(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	updated, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{})
	require.NoError(t, err)
	assert.Equal(t, order.UpdatedAt, updated.UpdatedAt)

	pending, _ := f.outbox.PullPending(context.Background(), 10)
	assert.Len(t, pending, 1, "no event for empty patch")
}

func TestServiceConfirmOrder(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	updated, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Status: statusPtr(domain.OrderStatusConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)

	events, _ := f.timeline.List(context.Background(), order.ID)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TimelineOrderStatusChanged, events[1].Type)

	pending, _ := f.outbox.PullPending(context.Background(), 10)
	require.Len(t, pending, 2)
	assert.Equal(t, EventOrderConfirmed, pending[1].EventType)

	// Подтверждённый заказ больше не редактируется.
	_, err = f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Notes: strPtr("late note"),
	})
	var notEditable *domain.OrderNotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, domain.OrderStatusConfirmed, notEditable.Status)
}

func TestServiceUpdateRejectsUnknownTransition(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	_, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Status: statusPtr(domain.OrderStatusShipped),
	})

	var invalid *domain.InvalidStatusTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.OrderStatusPending, invalid.From)
	assert.Equal(t, domain.OrderStatusShipped, invalid.To)

	stored, _ := f.repo.Get(context.Background(), order.ID)
	assert.Equal(t, domain.OrderStatusPending, stored.Status, "rejected transition must not persist")
}

func TestServiceUpdateReplacesItems(t *testing.T) {
	f := newServiceFixture()
	f.catalog.Add(domain.ProductInfo{SKU: "VAC-001", Name: "Vacuna antigripal", UnitPrice: dec("120.00"), IsActive: true})
	f.inventory.Set("VAC-001", domain.CenterStock{Code: "DC-MED", Name: "Medellin", Available: 50})

	order := f.createOrder(t)

	updated, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Items: []domain.ItemRequest{
			{ProductSKU: "VAC-001", Quantity: 5, TaxPercentage: dec("19")},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, "VAC-001", updated.Items[0].ProductSKU)
	assert.True(t, updated.Subtotal.Equal(dec("600.00")), "subtotal = %s", updated.Subtotal)
	assert.True(t, updated.TotalAmount.Equal(dec("714.00")), "total = %s", updated.TotalAmount)

	events, _ := f.timeline.List(context.Background(), order.ID)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TimelineOrderItemsReplaced, events[1].Type)
}

func TestServiceUpdateItemsFailureKeepsOriginal(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	_, err := f.service.UpdateOrder(context.Background(), order.ID, domain.OrderPatch{
		Items: []domain.ItemRequest{
			{ProductSKU: "GHOST-99", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored, _ := f.repo.Get(context.Background(), order.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "JER-001", stored.Items[0].ProductSKU)
	assert.True(t, stored.TotalAmount.Equal(order.TotalAmount))
}

func TestServiceDeleteOrder(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	require.NoError(t, f.service.DeleteOrder(context.Background(), order.ID))

	_, err := f.service.GetOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	pending, _ := f.outbox.PullPending(context.Background(), 10)
	require.Len(t, pending, 2)
	assert.Equal(t, EventOrderDeleted, pending[1].EventType)

	assert.ErrorIs(t, f.service.DeleteOrder(context.Background(), order.ID), domain.ErrOrderNotFound)
}

func TestServiceTimeline(t *testing.T) {
	f := newServiceFixture()
	order := f.createOrder(t)

	events, err := f.service.Timeline(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)

	_, err = f.service.Timeline(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
