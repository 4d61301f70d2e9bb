package resthttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/service/orders"
)

type createOrderRequest struct {
	CustomerID                  string            `json:"customer_id"`
	SellerID                    string            `json:"seller_id"`
	SellerName                  string            `json:"seller_name"`
	PaymentTerms                string            `json:"payment_terms"`
	PaymentMethod               string            `json:"payment_method"`
	DeliveryAddress             string            `json:"delivery_address"`
	DeliveryCity                string            `json:"delivery_city"`
	DeliveryDepartment          string            `json:"delivery_department"`
	PreferredDistributionCenter string            `json:"preferred_distribution_center"`
	Notes                       string            `json:"notes"`
	Items                       []itemRequestBody `json:"items"`
}

type itemRequestBody struct {
	ProductSKU string `json:"product_sku"`
	Quantity   int    `json:"quantity"`
	// Указатели отличают "не передано" от нуля: скидка по умолчанию 0,
	// налог по умолчанию — ставка IVA.
	DiscountPercentage *float64 `json:"discount_percentage"`
	TaxPercentage      *float64 `json:"tax_percentage"`
}

// updateOrderRequest перечисляет ТОЛЬКО изменяемые поля. Неизменяемые
// (customer_id, seller_id, order_number, суммы) в структуре отсутствуют,
// поэтому молча игнорируются при декодировании.
type updateOrderRequest struct {
	Status                      *string           `json:"status"`
	PaymentTerms                *string           `json:"payment_terms"`
	PaymentMethod               *string           `json:"payment_method"`
	DeliveryAddress             *string           `json:"delivery_address"`
	DeliveryCity                *string           `json:"delivery_city"`
	DeliveryDepartment          *string           `json:"delivery_department"`
	PreferredDistributionCenter *string           `json:"preferred_distribution_center"`
	Notes                       *string           `json:"notes"`
	Items                       []itemRequestBody `json:"items"`
}

type orderItemResponse struct {
	ID                     string   `json:"id"`
	ProductSKU             string   `json:"product_sku"`
	ProductName            string   `json:"product_name"`
	Quantity               int      `json:"quantity"`
	UnitPrice              float64  `json:"unit_price"`
	DiscountPercentage     float64  `json:"discount_percentage"`
	TaxPercentage          float64  `json:"tax_percentage"`
	Subtotal               float64  `json:"subtotal"`
	DiscountAmount         float64  `json:"discount_amount"`
	TaxAmount              float64  `json:"tax_amount"`
	Total                  float64  `json:"total"`
	DistributionCenterCode string   `json:"distribution_center_code"`
	StockConfirmed         bool     `json:"stock_confirmed"`
	StockConfirmedAt       *string  `json:"stock_confirmed_at"`
}

type orderResponse struct {
	ID                          string              `json:"id"`
	OrderNumber                 string              `json:"order_number"`
	CustomerID                  string              `json:"customer_id"`
	SellerID                    string              `json:"seller_id"`
	SellerName                  string              `json:"seller_name"`
	OrderDate                   string              `json:"order_date"`
	Status                      string              `json:"status"`
	Subtotal                    float64             `json:"subtotal"`
	DiscountAmount              float64             `json:"discount_amount"`
	TaxAmount                   float64             `json:"tax_amount"`
	TotalAmount                 float64             `json:"total_amount"`
	PaymentTerms                string              `json:"payment_terms"`
	PaymentMethod               string              `json:"payment_method"`
	DeliveryAddress             string              `json:"delivery_address"`
	DeliveryCity                string              `json:"delivery_city"`
	DeliveryDepartment          string              `json:"delivery_department"`
	PreferredDistributionCenter string              `json:"preferred_distribution_center"`
	Notes                       string              `json:"notes"`
	Items                       []orderItemResponse `json:"items"`
	CreatedAt                   string              `json:"created_at"`
	UpdatedAt                   string              `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Count  int             `json:"count"`
}

type timelineEventResponse struct {
	OrderID  string `json:"order_id"`
	Type     string `json:"type"`
	Detail   string `json:"detail"`
	Occurred string `json:"occurred"`
}

type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

func (r createOrderRequest) toServiceRequest() orders.CreateOrderRequest {
	return orders.CreateOrderRequest{
		CustomerID:                  r.CustomerID,
		SellerID:                    r.SellerID,
		SellerName:                  r.SellerName,
		Items:                       toDomainItems(r.Items),
		PaymentTerms:                r.PaymentTerms,
		PaymentMethod:               r.PaymentMethod,
		DeliveryAddress:             r.DeliveryAddress,
		DeliveryCity:                r.DeliveryCity,
		DeliveryDepartment:          r.DeliveryDepartment,
		PreferredDistributionCenter: r.PreferredDistributionCenter,
		Notes:                       r.Notes,
	}
}

func (r updateOrderRequest) toPatch() domain.OrderPatch {
	patch := domain.OrderPatch{
		PaymentTerms:                r.PaymentTerms,
		PaymentMethod:               r.PaymentMethod,
		DeliveryAddress:             r.DeliveryAddress,
		DeliveryCity:                r.DeliveryCity,
		DeliveryDepartment:          r.DeliveryDepartment,
		PreferredDistributionCenter: r.PreferredDistributionCenter,
		Notes:                       r.Notes,
	}
	if r.Status != nil {
		status := domain.OrderStatus(*r.Status)
		patch.Status = &status
	}
	if r.Items != nil {
		patch.Items = toDomainItems(r.Items)
	}
	return patch
}

func toDomainItems(items []itemRequestBody) []domain.ItemRequest {
	result := make([]domain.ItemRequest, 0, len(items))
	for _, item := range items {
		discount := decimal.Zero
		if item.DiscountPercentage != nil {
			discount = decimal.NewFromFloat(*item.DiscountPercentage)
		}
		tax := domain.DefaultTaxPercentage
		if item.TaxPercentage != nil {
			tax = decimal.NewFromFloat(*item.TaxPercentage)
		}
		result = append(result, domain.ItemRequest{
			ProductSKU:         item.ProductSKU,
			Quantity:           item.Quantity,
			DiscountPercentage: discount,
			TaxPercentage:      tax,
		})
	}
	return result
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, toItemResponse(item))
	}
	return orderResponse{
		ID:                          order.ID,
		OrderNumber:                 order.OrderNumber,
		CustomerID:                  order.CustomerID,
		SellerID:                    order.SellerID,
		SellerName:                  order.SellerName,
		OrderDate:                   order.OrderDate.UTC().Format(time.RFC3339),
		Status:                      string(order.Status),
		Subtotal:                    order.Subtotal.InexactFloat64(),
		DiscountAmount:              order.DiscountAmount.InexactFloat64(),
		TaxAmount:                   order.TaxAmount.InexactFloat64(),
		TotalAmount:                 order.TotalAmount.InexactFloat64(),
		PaymentTerms:                order.PaymentTerms,
		PaymentMethod:               order.PaymentMethod,
		DeliveryAddress:             order.DeliveryAddress,
		DeliveryCity:                order.DeliveryCity,
		DeliveryDepartment:          order.DeliveryDepartment,
		PreferredDistributionCenter: order.PreferredDistributionCenter,
		Notes:                       order.Notes,
		Items:                       items,
		CreatedAt:                   order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:                   order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toItemResponse(item domain.OrderItem) orderItemResponse {
	var confirmedAt *string
	if !item.StockConfirmedAt.IsZero() {
		formatted := item.StockConfirmedAt.UTC().Format(time.RFC3339)
		confirmedAt = &formatted
	}
	return orderItemResponse{
		ID:                     item.ID,
		ProductSKU:             item.ProductSKU,
		ProductName:            item.ProductName,
		Quantity:               item.Quantity,
		UnitPrice:              item.UnitPrice.InexactFloat64(),
		DiscountPercentage:     item.DiscountPercentage.InexactFloat64(),
		TaxPercentage:          item.TaxPercentage.InexactFloat64(),
		Subtotal:               item.Subtotal.InexactFloat64(),
		DiscountAmount:         item.DiscountAmount.InexactFloat64(),
		TaxAmount:              item.TaxAmount.InexactFloat64(),
		Total:                  item.Total.InexactFloat64(),
		DistributionCenterCode: item.DistributionCenterCode,
		StockConfirmed:         item.StockConfirmed,
		StockConfirmedAt:       confirmedAt,
	}
}

func toTimelineResponse(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventResponse{
			OrderID:  event.OrderID,
			Type:     event.Type,
			Detail:   event.Detail,
			Occurred: event.Occurred.UTC().Format(time.RFC3339),
		})
	}
	return result
}
