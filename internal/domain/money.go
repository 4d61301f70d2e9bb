package domain

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// DefaultTaxPercentage — ставка НДС по умолчанию (IVA 19%).
	DefaultTaxPercentage = decimal.NewFromInt(19)
)

// LineAmounts — денежный результат расчёта одной позиции заказа.
// Все значения округлены до 2 знаков (half-up); округляется только итог
// каждой величины, промежуточные расчёты выполняются без потери точности.
type LineAmounts struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// OrderTotals агрегирует суммы по всем позициям заказа.
type OrderTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// PriceLine вычисляет суммы позиции:
//
//	subtotal   = unit_price * quantity
//	discount   = subtotal * discount_pct / 100
//	tax        = (subtotal - discount) * tax_pct / 100
//	total      = subtotal - discount + tax
//
// Возвращает InvalidAmountError, если цена отрицательная, количество
// неположительное или процент вне [0, 100].
func PriceLine(unitPrice decimal.Decimal, quantity int, discountPct, taxPct decimal.Decimal) (LineAmounts, error) {
	if unitPrice.IsNegative() {
		return LineAmounts{}, &InvalidAmountError{Field: "unit_price", Value: unitPrice.String()}
	}
	if quantity <= 0 {
		return LineAmounts{}, &InvalidAmountError{Field: "quantity", Value: decimal.NewFromInt(int64(quantity)).String()}
	}
	if err := validatePercentage("discount_percentage", discountPct); err != nil {
		return LineAmounts{}, err
	}
	if err := validatePercentage("tax_percentage", taxPct); err != nil {
		return LineAmounts{}, err
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	discount := subtotal.Mul(discountPct).Div(hundred)
	taxableBase := subtotal.Sub(discount)
	tax := taxableBase.Mul(taxPct).Div(hundred)
	total := taxableBase.Add(tax)

	return LineAmounts{
		Subtotal:       roundMoney(subtotal),
		DiscountAmount: roundMoney(discount),
		TaxAmount:      roundMoney(tax),
		Total:          roundMoney(total),
	}, nil
}

// SumLines складывает суммы позиций в итоги заказа.
func SumLines(lines []LineAmounts) OrderTotals {
	totals := OrderTotals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
	for _, line := range lines {
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal)
		totals.DiscountAmount = totals.DiscountAmount.Add(line.DiscountAmount)
		totals.TaxAmount = totals.TaxAmount.Add(line.TaxAmount)
		totals.TotalAmount = totals.TotalAmount.Add(line.Total)
	}
	return totals
}

func validatePercentage(field string, value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return &InvalidAmountError{Field: field, Value: value.String()}
	}
	return nil
}

// roundMoney округляет до 2 знаков. Decimal.Round для неотрицательных величин
// эквивалентен round-half-up.
func roundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
