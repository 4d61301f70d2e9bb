package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/gateway/catalog"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestClientProduct_Ok(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/JER-001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sku":"JER-001","name":"Jeringa 10ml","unit_price":350.00,"is_active":true}`))
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, time.Second, nil)
	product, err := client.Product(context.Background(), "JER-001")
	require.NoError(t, err)

	assert.Equal(t, "JER-001", product.SKU)
	assert.Equal(t, "Jeringa 10ml", product.Name)
	assert.True(t, product.UnitPrice.Equal(mustDecimal(t, "350.00")))
	assert.True(t, product.IsActive)
}

func TestClientProduct_InactiveProductIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sku":"VAC-001","name":"Vacuna","unit_price":120,"is_active":false}`))
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, time.Second, nil)
	product, err := client.Product(context.Background(), "VAC-001")
	require.NoError(t, err)
	assert.False(t, product.IsActive)
}

func TestClientProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, time.Second, nil)
	_, err := client.Product(context.Background(), "NO-SUCH")

	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "NO-SUCH", notFound.SKU)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientProduct_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, time.Second, nil)
	_, err := client.Product(context.Background(), "JER-001")

	var unavailable *domain.UpstreamUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "catalog", unavailable.Service)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestClientProduct_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, 20*time.Millisecond, nil)
	_, err := client.Product(context.Background(), "JER-001")

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestClientProduct_Unreachable(t *testing.T) {
	// Порт заведомо закрыт: сервер поднимаем и сразу гасим.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := catalog.NewClient(addr, time.Second, nil)
	_, err := client.Product(context.Background(), "JER-001")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestClientProduct_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := catalog.NewClient(srv.URL, time.Second, nil)
	_, err := client.Product(ctx, "JER-001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockGateway(t *testing.T) {
	mock := catalog.NewMockGateway()
	mock.Add(domain.ProductInfo{SKU: "JER-001", Name: "Jeringa", UnitPrice: mustDecimal(t, "350"), IsActive: true})

	product, err := mock.Product(context.Background(), "JER-001")
	require.NoError(t, err)
	assert.Equal(t, "Jeringa", product.Name)

	_, err = mock.Product(context.Background(), "NO-SUCH")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.Err = errors.New("boom")
	_, err = mock.Product(context.Background(), "JER-001")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 3, mock.Calls)
}
