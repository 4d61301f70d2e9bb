package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Категории ошибок. Конкретные ошибки ниже разворачиваются (Unwrap) в одну из
// категорий, чтобы транспортный слой мог выбрать HTTP-статус через errors.Is,
// не зная всех частных случаев.
var (
	// ErrValidation — некорректный запрос со стороны клиента.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict — бизнес-конфликт (нехватка стока и т.п.).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable — внешний сервис недоступен или не ответил вовремя.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrDatabase — сбой локального хранилища.
	ErrDatabase = errors.New("database failure")
)

// categoryError привязывает фиксированное сообщение к категории.
type categoryError struct {
	msg      string
	category error
}

func (e *categoryError) Error() string { return e.msg }
func (e *categoryError) Unwrap() error { return e.category }

func newCategoryError(category error, msg string) error {
	return &categoryError{msg: msg, category: category}
}

// Частые ошибки валидации запроса на создание/обновление заказа.
var (
	// ErrCustomerRequired — не передан идентификатор клиента.
	ErrCustomerRequired = newCategoryError(ErrValidation, "customer_id is required")
	// ErrSellerRequired — не передан идентификатор продавца.
	ErrSellerRequired = newCategoryError(ErrValidation, "seller_id is required")
	// ErrItemsRequired — заказ без позиций не имеет смысла.
	ErrItemsRequired = newCategoryError(ErrValidation, "Order must have at least one item")
	// ErrItemSKURequired — позиция без SKU.
	ErrItemSKURequired = newCategoryError(ErrValidation, "Product SKU is required for all items")
	// ErrOrderNotFound возвращается репозиторием, если заказа нет.
	ErrOrderNotFound = newCategoryError(ErrNotFound, "order not found")
	// ErrCustomerNotFound возвращается, если клиент не зарегистрирован.
	ErrCustomerNotFound = newCategoryError(ErrNotFound, "customer not found")
	// ErrCustomerInactive — заказ для деактивированного клиента запрещён.
	ErrCustomerInactive = newCategoryError(ErrValidation, "customer is not active")
)

// InvalidAmountError сигнализирует о числовом поле вне допустимого диапазона.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %s=%s", e.Field, e.Value)
}

func (e *InvalidAmountError) Unwrap() error { return ErrValidation }

// ProductNotFoundError — каталог не знает такой SKU.
type ProductNotFoundError struct {
	SKU string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with SKU '%s' not found in catalog", e.SKU)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrNotFound }

// InactiveProductError — товар существует, но снят с продажи.
type InactiveProductError struct {
	SKU string
}

func (e *InactiveProductError) Error() string {
	return fmt.Sprintf("Product '%s' is not active", e.SKU)
}

func (e *InactiveProductError) Unwrap() error { return ErrValidation }

// InsufficientStockError — ни один центр дистрибуции не покрывает запрошенное количество.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
	Centers   []CenterStock
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product '%s'. Required: %d, Available: %d",
		e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }

// UpstreamUnavailableError — таймаут или сетевая ошибка внешнего сервиса.
type UpstreamUnavailableError struct {
	Service string
	SKU     string
	Cause   error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("%s service unavailable (sku %s): %v", e.Service, e.SKU, e.Cause)
	}
	return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Cause)
}

func (e *UpstreamUnavailableError) Unwrap() error { return ErrUnavailable }

// InvalidStatusTransitionError — запрошенный переход статуса не входит в whitelist.
type InvalidStatusTransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Allowed []OrderStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		allowed = append(allowed, string(s))
	}
	return fmt.Sprintf("Invalid status transition: '%s' -> '%s'. Allowed transitions: %s",
		e.From, e.To, strings.Join(allowed, ", "))
}

func (e *InvalidStatusTransitionError) Unwrap() error { return ErrValidation }

// OrderNotEditableError — попытка изменить заказ вне статуса pending.
type OrderNotEditableError struct {
	Status OrderStatus
}

func (e *OrderNotEditableError) Error() string {
	return fmt.Sprintf("order in status '%s' is not editable", e.Status)
}

func (e *OrderNotEditableError) Unwrap() error { return ErrValidation }

// IsRetryable сообщает, имеет ли смысл повторить запрос позже.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
