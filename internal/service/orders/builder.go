package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/metrics"
)

// CreateOrderRequest — входные данные на создание заказа после декодирования
// транспортным слоем (умолчания по налогу и позициям уже применены).
type CreateOrderRequest struct {
	CustomerID                  string
	SellerID                    string
	SellerName                  string
	Items                       []domain.ItemRequest
	PaymentTerms                string
	PaymentMethod               string
	DeliveryAddress             string
	DeliveryCity                string
	DeliveryDepartment          string
	PreferredDistributionCenter string
	Notes                       string
}

// Builder собирает черновик заказа: валидация, обогащение из каталога,
// подбор центра дистрибуции и расчёт сумм. Ничего не персистит — это чистый
// конвейер проверки и обогащения.
type Builder struct {
	catalog   domain.CatalogGateway
	inventory domain.InventoryGateway
	customers domain.CustomerRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewBuilder создаёт сборщик заказов.
func NewBuilder(
	catalog domain.CatalogGateway,
	inventory domain.InventoryGateway,
	customers domain.CustomerRepository,
	logger *log.Entry,
	orderMetrics *metrics.OrderMetrics,
) *Builder {
	if logger == nil {
		logger = log.WithField("component", "order-builder")
	}
	return &Builder{
		catalog:   catalog,
		inventory: inventory,
		customers: customers,
		logger:    logger,
		metrics:   orderMetrics,
	}
}

// Build конструирует полностью заполненный, но ещё не сохранённый заказ в
// статусе pending. Любая ошибка по любой позиции прерывает сборку целиком:
// либо каждая позиция разрешилась и зарезервирована, либо заказ не создаётся.
func (b *Builder) Build(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	started := time.Now()
	defer func() {
		b.metrics.ObserveBuildDuration(time.Since(started))
	}()

	if err := validateCreateRequest(&req); err != nil {
		return domain.Order{}, err
	}

	customer, err := b.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return domain.Order{}, err
	}
	if !customer.IsActive {
		return domain.Order{}, domain.ErrCustomerInactive
	}

	items, err := b.ResolveItems(ctx, req.Items, req.PreferredDistributionCenter)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:                          uuid.NewString(),
		CustomerID:                  customer.ID,
		SellerID:                    req.SellerID,
		SellerName:                  req.SellerName,
		OrderDate:                   now,
		Status:                      domain.OrderStatusPending,
		PaymentTerms:                defaultString(req.PaymentTerms, "contado"),
		PaymentMethod:               req.PaymentMethod,
		DeliveryAddress:             defaultString(req.DeliveryAddress, customer.Address),
		DeliveryCity:                defaultString(req.DeliveryCity, customer.City),
		DeliveryDepartment:          defaultString(req.DeliveryDepartment, customer.Department),
		PreferredDistributionCenter: req.PreferredDistributionCenter,
		Notes:                       req.Notes,
		Items:                       items,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	order.RecalculateTotals()

	return order, nil
}

// ResolveItems разрешает позиции против каталога и склада. Разные SKU
// обрабатываются параллельно; внутри позиции каталог опрашивается строго до
// склада, чтобы несуществующий или неактивный товар не тратил проверку стока.
// Отмена контекста прерывает незавершённые запросы.
func (b *Builder) ResolveItems(ctx context.Context, requests []domain.ItemRequest, preferredCenter string) ([]domain.OrderItem, error) {
	if len(requests) == 0 {
		return nil, domain.ErrItemsRequired
	}
	for i := range requests {
		if err := validateItemRequest(&requests[i]); err != nil {
			return nil, err
		}
	}

	resolved := make([]domain.OrderItem, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			item, err := b.resolveItem(gctx, req, preferredCenter)
			if err != nil {
				return err
			}
			resolved[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return resolved, nil
}

func (b *Builder) resolveItem(ctx context.Context, req domain.ItemRequest, preferredCenter string) (domain.OrderItem, error) {
	catalogStarted := time.Now()
	product, err := b.catalog.Product(ctx, req.ProductSKU)
	b.metrics.ObserveGatewayCall("catalog", time.Since(catalogStarted), err)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if !product.IsActive {
		return domain.OrderItem{}, &domain.InactiveProductError{SKU: req.ProductSKU}
	}

	line, err := domain.PriceLine(product.UnitPrice, req.Quantity, req.DiscountPercentage, req.TaxPercentage)
	if err != nil {
		return domain.OrderItem{}, err
	}

	inventoryStarted := time.Now()
	reservation, err := b.inventory.Reserve(ctx, req.ProductSKU, req.Quantity, preferredCenter)
	b.metrics.ObserveGatewayCall("logistics", time.Since(inventoryStarted), err)
	if err != nil {
		return domain.OrderItem{}, err
	}

	now := time.Now().UTC()
	return domain.OrderItem{
		ID:                     uuid.NewString(),
		ProductSKU:             req.ProductSKU,
		ProductName:            product.Name,
		Quantity:               req.Quantity,
		UnitPrice:              product.UnitPrice,
		DiscountPercentage:     req.DiscountPercentage,
		TaxPercentage:          req.TaxPercentage,
		Subtotal:               line.Subtotal,
		DiscountAmount:         line.DiscountAmount,
		TaxAmount:              line.TaxAmount,
		Total:                  line.Total,
		DistributionCenterCode: reservation.DistributionCenterCode,
		StockConfirmed:         reservation.Confirmed,
		StockConfirmedAt:       now,
		CreatedAt:              now,
	}, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
