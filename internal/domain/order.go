package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа в сервисе продаж.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ещё может редактироваться.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ подтверждён продавцом.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing — заказ передан на сборку.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ отгружен из центра дистрибуции.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// knownStatuses — закрытое множество статусов; строки вне его отклоняются на валидации.
var knownStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// editTransitions — whitelist переходов, доступных через PATCH.
// Все статусы, кроме pending, через путь редактирования не меняются.
var editTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPending, OrderStatusConfirmed},
}

// Known сообщает, входит ли статус в закрытое множество.
func (s OrderStatus) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// AllowedTransitions возвращает статусы, в которые разрешён переход через редактирование.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	allowed := editTransitions[s]
	result := make([]OrderStatus, len(allowed))
	copy(result, allowed)
	return result
}

// CanTransitionTo проверяет переход по таблице editTransitions.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range editTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// OrderItem представляет одну позицию заказа. Название и цена товара —
// снимок каталога на момент создания, живой связи с каталогом нет.
type OrderItem struct {
	ID                     string
	ProductSKU             string
	ProductName            string
	Quantity               int
	UnitPrice              decimal.Decimal
	DiscountPercentage     decimal.Decimal
	TaxPercentage          decimal.Decimal
	Subtotal               decimal.Decimal
	DiscountAmount         decimal.Decimal
	TaxAmount              decimal.Decimal
	Total                  decimal.Decimal
	DistributionCenterCode string
	StockConfirmed         bool
	StockConfirmedAt       time.Time
	CreatedAt              time.Time
}

// Order агрегирует заказ и его позиции.
type Order struct {
	ID                          string
	OrderNumber                 string
	CustomerID                  string
	SellerID                    string
	SellerName                  string
	OrderDate                   time.Time
	Status                      OrderStatus
	Subtotal                    decimal.Decimal
	DiscountAmount              decimal.Decimal
	TaxAmount                   decimal.Decimal
	TotalAmount                 decimal.Decimal
	PaymentTerms                string
	PaymentMethod               string
	DeliveryAddress             string
	DeliveryCity                string
	DeliveryDepartment          string
	PreferredDistributionCenter string
	Notes                       string
	Items                       []OrderItem
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// Editable сообщает, допускает ли текущий статус изменение полей заказа.
func (o *Order) Editable() bool {
	return o.Status == OrderStatusPending
}

// RecalculateTotals пересчитывает итоги заказа по его позициям.
func (o *Order) RecalculateTotals() {
	lines := make([]LineAmounts, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, LineAmounts{
			Subtotal:       item.Subtotal,
			DiscountAmount: item.DiscountAmount,
			TaxAmount:      item.TaxAmount,
			Total:          item.Total,
		})
	}
	totals := SumLines(lines)
	o.Subtotal = totals.Subtotal
	o.DiscountAmount = totals.DiscountAmount
	o.TaxAmount = totals.TaxAmount
	o.TotalAmount = totals.TotalAmount
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.SellerID == "" {
		errs = append(errs, ErrSellerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !o.Status.Known() {
		errs = append(errs, &InvalidStatusTransitionError{From: o.Status, To: o.Status})
	}
	for _, amount := range []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotal", o.Subtotal},
		{"discount_amount", o.DiscountAmount},
		{"tax_amount", o.TaxAmount},
		{"total_amount", o.TotalAmount},
	} {
		if amount.value.IsNegative() {
			errs = append(errs, &InvalidAmountError{Field: amount.field, Value: amount.value.String()})
		}
	}

	for _, item := range o.Items {
		if item.ProductSKU == "" {
			errs = append(errs, ErrItemSKURequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, &InvalidAmountError{Field: "quantity", Value: decimal.NewFromInt(int64(item.Quantity)).String()})
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, &InvalidAmountError{Field: "unit_price", Value: item.UnitPrice.String()})
		}
	}

	return errs
}

// OrderPatch содержит только изменяемые поля заказа. Иммутабельные поля
// (customer_id, seller_id, order_number, итоговые суммы и т.д.) сюда не
// попадают вовсе — транспортный слой их молча отбрасывает при декодировании.
type OrderPatch struct {
	Status                      *OrderStatus
	PaymentTerms                *string
	PaymentMethod               *string
	DeliveryAddress             *string
	DeliveryCity                *string
	DeliveryDepartment          *string
	PreferredDistributionCenter *string
	Notes                       *string
	// Items != nil означает полную замену списка позиций (не merge).
	Items []ItemRequest
}

// Empty сообщает, что патч не содержит ни одного изменения.
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.PaymentTerms == nil && p.PaymentMethod == nil &&
		p.DeliveryAddress == nil && p.DeliveryCity == nil && p.DeliveryDepartment == nil &&
		p.PreferredDistributionCenter == nil && p.Notes == nil && p.Items == nil
}

// ApplyScalarPatch применяет скалярные поля патча с проверкой таблицы переходов.
// Замена позиций выполняется отдельно, так как требует обращений к каталогу и складу.
func (o *Order) ApplyScalarPatch(p OrderPatch) error {
	if !o.Editable() {
		return &OrderNotEditableError{Status: o.Status}
	}

	if p.Status != nil {
		target := *p.Status
		if !o.Status.CanTransitionTo(target) {
			return &InvalidStatusTransitionError{
				From:    o.Status,
				To:      target,
				Allowed: o.Status.AllowedTransitions(),
			}
		}
		o.Status = target
	}
	if p.PaymentTerms != nil {
		o.PaymentTerms = *p.PaymentTerms
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.DeliveryAddress != nil {
		o.DeliveryAddress = *p.DeliveryAddress
	}
	if p.DeliveryCity != nil {
		o.DeliveryCity = *p.DeliveryCity
	}
	if p.DeliveryDepartment != nil {
		o.DeliveryDepartment = *p.DeliveryDepartment
	}
	if p.PreferredDistributionCenter != nil {
		o.PreferredDistributionCenter = *p.PreferredDistributionCenter
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}

	return nil
}

// ItemRequest — входные данные одной позиции при создании/замене списка позиций.
type ItemRequest struct {
	ProductSKU         string
	Quantity           int
	DiscountPercentage decimal.Decimal
	TaxPercentage      decimal.Decimal
}
