package logistics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/domain"
)

const (
	serviceName = "logistics"
	// DefaultTimeout — предельное время ответа сервиса логистики.
	DefaultTimeout = 3 * time.Second
)

// Client запрашивает остатки по SKU у сервиса логистики и выбирает центр
// дистрибуции под позицию заказа. Сам по себе запрос сток не списывает —
// фиксация остатка остаётся за логистикой.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт HTTP-клиент логистики.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "logistics-gateway")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		logger: logger,
	}
}

type stockLevelsResponse struct {
	ProductSKU          string              `json:"product_sku"`
	TotalAvailable      int                 `json:"total_available"`
	DistributionCenters []stockCenterRecord `json:"distribution_centers"`
}

type stockCenterRecord struct {
	Code      string `json:"distribution_center_code"`
	Name      string `json:"distribution_center_name"`
	Available int    `json:"quantity_available"`
}

// Reserve запрашивает остатки по всем центрам и подбирает центр фулфилмента.
// Политика выбора: предпочтительный центр, если его остатка хватает; иначе
// центр с наибольшим запасом сверх запрошенного количества, при равенстве —
// меньший код (детерминированный исход).
func (c *Client) Reserve(ctx context.Context, sku string, quantity int, preferredCenter string) (domain.StockReservation, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/inventory/stock-levels", c.baseURL)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.StockReservation{}, fmt.Errorf("build stock request: %w", err)
	}
	query := url.Values{"product_sku": {sku}}
	req.URL.RawQuery = query.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.StockReservation{}, ctx.Err()
		}
		c.logger.WithError(err).WithField("sku", sku).Warn("stock levels request failed")
		return domain.StockReservation{}, &domain.UpstreamUnavailableError{Service: serviceName, SKU: sku, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		c.logger.WithError(err).WithField("sku", sku).Warn("logistics returned non-200")
		return domain.StockReservation{}, &domain.UpstreamUnavailableError{Service: serviceName, SKU: sku, Cause: err}
	}

	var payload stockLevelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.StockReservation{}, &domain.UpstreamUnavailableError{
			Service: serviceName,
			SKU:     sku,
			Cause:   fmt.Errorf("decode stock response: %w", err),
		}
	}

	centers := make([]domain.CenterStock, 0, len(payload.DistributionCenters))
	for _, center := range payload.DistributionCenters {
		centers = append(centers, domain.CenterStock{
			Code:      center.Code,
			Name:      center.Name,
			Available: center.Available,
		})
	}

	return SelectCenter(sku, quantity, preferredCenter, centers)
}

// SelectCenter реализует политику выбора центра дистрибуции поверх уже
// полученных остатков. Вынесена отдельно, чтобы политика тестировалась без HTTP.
func SelectCenter(sku string, quantity int, preferredCenter string, centers []domain.CenterStock) (domain.StockReservation, error) {
	totalAvailable := 0
	for _, center := range centers {
		totalAvailable += center.Available
	}

	if preferredCenter != "" {
		for _, center := range centers {
			if center.Code == preferredCenter && center.Available >= quantity {
				return domain.StockReservation{DistributionCenterCode: center.Code, Confirmed: true}, nil
			}
		}
	}

	candidates := make([]domain.CenterStock, 0, len(centers))
	for _, center := range centers {
		if center.Available >= quantity {
			candidates = append(candidates, center)
		}
	}
	if len(candidates) == 0 {
		return domain.StockReservation{}, &domain.InsufficientStockError{
			SKU:       sku,
			Requested: quantity,
			Available: totalAvailable,
			Centers:   centers,
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		surplusI := candidates[i].Available - quantity
		surplusJ := candidates[j].Available - quantity
		if surplusI != surplusJ {
			return surplusI > surplusJ
		}
		return candidates[i].Code < candidates[j].Code
	})

	return domain.StockReservation{DistributionCenterCode: candidates[0].Code, Confirmed: true}, nil
}

var _ domain.InventoryGateway = (*Client)(nil)
