package domain

import "time"

// Customer — клиент, от имени которого продавец оформляет заказ.
// Адресные поля используются как значения по умолчанию для доставки.
type Customer struct {
	ID           string
	BusinessName string
	Address      string
	City         string
	Department   string
	IsActive     bool
	CreatedAt    time.Time
}
