package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/medisupply/sales/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// requestValidator — один шаг цепочки структурной валидации запроса.
// Цепочка выполняется целиком до любых обращений к внешним сервисам.
type requestValidator func(*CreateOrderRequest) error

var createValidators = []requestValidator{
	requireCustomer,
	requireSeller,
	requireItems,
}

func validateCreateRequest(req *CreateOrderRequest) error {
	for _, validate := range createValidators {
		if err := validate(req); err != nil {
			return err
		}
	}
	return nil
}

func requireCustomer(req *CreateOrderRequest) error {
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.ErrCustomerRequired
	}
	return nil
}

func requireSeller(req *CreateOrderRequest) error {
	if strings.TrimSpace(req.SellerID) == "" {
		return domain.ErrSellerRequired
	}
	return nil
}

func requireItems(req *CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return domain.ErrItemsRequired
	}
	return nil
}

func validateItemRequest(item *domain.ItemRequest) error {
	if strings.TrimSpace(item.ProductSKU) == "" {
		return domain.ErrItemSKURequired
	}
	if item.Quantity <= 0 {
		return &domain.InvalidAmountError{Field: "quantity", Value: decimal.NewFromInt(int64(item.Quantity)).String()}
	}
	if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(oneHundred) {
		return &domain.InvalidAmountError{Field: "discount_percentage", Value: item.DiscountPercentage.String()}
	}
	if item.TaxPercentage.IsNegative() || item.TaxPercentage.GreaterThan(oneHundred) {
		return &domain.InvalidAmountError{Field: "tax_percentage", Value: item.TaxPercentage.String()}
	}
	return nil
}
