package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/domain"
)

const (
	serviceName = "catalog"
	// DefaultTimeout — предельное время ответа каталога на один запрос.
	DefaultTimeout = 3 * time.Second
)

// Client обращается к сервису каталога за данными товара по SKU.
// Кэширования нет: каждое создание заказа делает свежий запрос на позицию.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт HTTP-клиент каталога. Таймаут управляется контекстом
// запроса, поэтому сам http.Client без Timeout.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "catalog-gateway")
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

type productResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
}

// Product возвращает данные товара. Отсутствующий SKU — ProductNotFoundError,
// таймаут или сетевая ошибка — UpstreamUnavailableError. Неактивный товар
// возвращается без ошибки: отклонить его должен сборщик заказа.
func (c *Client) Product(ctx context.Context, sku string) (domain.ProductInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/products/%s", c.baseURL, url.PathEscape(sku))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ProductInfo{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.ProductInfo{}, ctx.Err()
		}
		c.logger.WithError(err).WithField("sku", sku).Warn("catalog request failed")
		return domain.ProductInfo{}, &domain.UpstreamUnavailableError{Service: serviceName, SKU: sku, Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ProductInfo{}, &domain.ProductNotFoundError{SKU: sku}
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		c.logger.WithError(err).WithField("sku", sku).Warn("catalog returned non-200")
		return domain.ProductInfo{}, &domain.UpstreamUnavailableError{Service: serviceName, SKU: sku, Cause: err}
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ProductInfo{}, &domain.UpstreamUnavailableError{
			Service: serviceName,
			SKU:     sku,
			Cause:   fmt.Errorf("decode catalog response: %w", err),
		}
	}

	return domain.ProductInfo{
		SKU:       payload.SKU,
		Name:      payload.Name,
		UnitPrice: payload.UnitPrice,
		IsActive:  payload.IsActive,
	}, nil
}

var _ domain.CatalogGateway = (*Client)(nil)
