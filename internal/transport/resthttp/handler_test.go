package resthttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/gateway/catalog"
	"github.com/medisupply/sales/internal/gateway/logistics"
	"github.com/medisupply/sales/internal/service/orders"
	"github.com/medisupply/sales/internal/storage/memory"
)

type apiFixture struct {
	catalog   *catalog.MockGateway
	inventory *logistics.MockGateway
	customers *memory.CustomerRepository
	server    *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		catalog:   catalog.NewMockGateway(),
		inventory: logistics.NewMockGateway(),
		customers: memory.NewCustomerRepository(),
	}
	f.customers.Put(domain.Customer{
		ID:           "cust-1",
		BusinessName: "Clinica San Rafael",
		Address:      "Calle 10 #5-51",
		City:         "Bogota",
		Department:   "Cundinamarca",
		IsActive:     true,
	})
	f.catalog.Add(domain.ProductInfo{
		SKU:       "JER-001",
		Name:      "Jeringa desechable 5ml",
		UnitPrice: decimal.RequireFromString("350.00"),
		IsActive:  true,
	})
	f.inventory.Set("JER-001", domain.CenterStock{Code: "DC-BOG", Name: "Bogota", Available: 100})

	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	builder := orders.NewBuilder(f.catalog, f.inventory, f.customers, nil, nil)
	service := orders.NewService(
		memory.NewOrderRepository(),
		builder,
		memory.NewTimelineRepository(),
		memory.NewOutboxRepository(),
		logger,
		nil,
	)
	router := NewRouter(NewHandler(service, logger), logger, nil, nil)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"customer_id": "cust-1",
		"seller_id":   "sel-1",
		"seller_name": "Maria Gomez",
		"items": []map[string]interface{}{
			{"product_sku": "JER-001", "quantity": 10, "discount_percentage": 5},
		},
	}
}

func (f *apiFixture) createOrder(t *testing.T) orderResponse {
	t.Helper()

	resp, body := f.do(t, http.MethodPost, "/api/v1/orders", validCreateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var order orderResponse
	require.NoError(t, json.Unmarshal(body, &order))
	return order
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	order := f.createOrder(t)

	assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, order.OrderNumber)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "contado", order.PaymentTerms)
	assert.Equal(t, "Calle 10 #5-51", order.DeliveryAddress)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Jeringa desechable 5ml", item.ProductName)
	assert.InDelta(t, 3500.00, item.Subtotal, 0.001)
	assert.InDelta(t, 175.00, item.DiscountAmount, 0.001)
	assert.InDelta(t, 631.75, item.TaxAmount, 0.001)
	assert.InDelta(t, 3956.75, item.Total, 0.001)
	assert.InDelta(t, 19, item.TaxPercentage, 0.001, "tax defaults to IVA")
	assert.Equal(t, "DC-BOG", item.DistributionCenterCode)
	assert.True(t, item.StockConfirmed)

	assert.InDelta(t, 3956.75, order.TotalAmount, 0.001)
}

func TestCreateOrderValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name       string
		mutate     func(map[string]interface{})
		wantStatus int
	}{
		{"missing customer", func(b map[string]interface{}) { delete(b, "customer_id") }, http.StatusBadRequest},
		{"missing seller", func(b map[string]interface{}) { delete(b, "seller_id") }, http.StatusBadRequest},
		{"empty items", func(b map[string]interface{}) { b["items"] = []interface{}{} }, http.StatusBadRequest},
		{"unknown customer", func(b map[string]interface{}) { b["customer_id"] = "ghost" }, http.StatusNotFound},
		{
			"zero quantity",
			func(b map[string]interface{}) {
				b["items"] = []map[string]interface{}{{"product_sku": "JER-001", "quantity": 0}}
			},
			http.StatusBadRequest,
		},
		{
			"unknown product",
			func(b map[string]interface{}) {
				b["items"] = []map[string]interface{}{{"product_sku": "GHOST-01", "quantity": 1}}
			},
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			tt.mutate(body)

			resp, raw := f.do(t, http.MethodPost, "/api/v1/orders", body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, "body: %s", raw)

			var errBody errorResponse
			require.NoError(t, json.Unmarshal(raw, &errBody))
			assert.Equal(t, tt.wantStatus, errBody.StatusCode)
			assert.NotEmpty(t, errBody.Error)
		})
	}
}

func TestCreateOrderInsufficientStockConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.inventory.Set("JER-001",
		domain.CenterStock{Code: "DC-BOG", Available: 4},
		domain.CenterStock{Code: "DC-MED", Available: 3},
	)

	resp, raw := f.do(t, http.MethodPost, "/api/v1/orders", validCreateBody())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "Insufficient stock")
}

func TestCreateOrderUpstreamUnavailable(t *testing.T) {
	f := newAPIFixture(t)
	f.catalog.Err = &domain.UpstreamUnavailableError{Service: "catalog", SKU: "JER-001"}

	resp, _ := f.do(t, http.MethodPost, "/api/v1/orders", validCreateBody())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCreateOrderMalformedJSON(t *testing.T) {
	f := newAPIFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/orders", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createOrder(t)

	resp, raw := f.do(t, http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got orderResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, created.OrderNumber, got.OrderNumber)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOrdersEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.createOrder(t)
	f.createOrder(t)

	resp, raw := f.do(t, http.MethodGet, "/api/v1/orders?customer_id=cust-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list orderListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 2, list.Count)

	resp, raw = f.do(t, http.MethodGet, "/api/v1/orders?status=confirmed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 0, list.Count)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createOrder(t)

	resp, raw := f.do(t, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]interface{}{
		"notes":  "entregar en porteria",
		"status": "confirmed",
		// Неизменяемые поля игнорируются декодером.
		"customer_id":  "cust-evil",
		"order_number": "ORD-FAKE",
		"total_amount": 1.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	var updated orderResponse
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "confirmed", updated.Status)
	assert.Equal(t, "entregar en porteria", updated.Notes)
	assert.Equal(t, "cust-1", updated.CustomerID)
	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	assert.InDelta(t, created.TotalAmount, updated.TotalAmount, 0.001)

	// Подтверждённый заказ менять нельзя.
	resp, raw = f.do(t, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]interface{}{
		"notes": "late",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "not editable")
}

func TestUpdateOrderInvalidTransition(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createOrder(t)

	resp, raw := f.do(t, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]interface{}{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "shipped")
}

func TestUpdateOrderReplacesItems(t *testing.T) {
	f := newAPIFixture(t)
	f.catalog.Add(domain.ProductInfo{
		SKU: "VAC-001", Name: "Vacuna antigripal",
		UnitPrice: decimal.RequireFromString("120.00"), IsActive: true,
	})
	f.inventory.Set("VAC-001", domain.CenterStock{Code: "DC-MED", Available: 50})

	created := f.createOrder(t)

	resp, raw := f.do(t, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_sku": "VAC-001", "quantity": 5},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	var updated orderResponse
	require.NoError(t, json.Unmarshal(raw, &updated))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "VAC-001", updated.Items[0].ProductSKU)
	assert.InDelta(t, 714.00, updated.TotalAmount, 0.001)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createOrder(t)

	resp, _ := f.do(t, http.MethodDelete, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTimelineEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createOrder(t)

	resp, raw := f.do(t, http.MethodGet, "/api/v1/orders/"+created.ID+"/timeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []timelineEventResponse
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 1)
	assert.Equal(t, domain.TimelineOrderCreated, events[0].Type)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/orders/missing/timeline", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
