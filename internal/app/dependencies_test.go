package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/gateway/catalog"
	"github.com/medisupply/sales/internal/gateway/logistics"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger.WithField("component", "test")
}

func TestNewDependenciesMemory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewDependencies: %v", err)
	}
	defer deps.Close()

	if deps.Orders == nil || deps.Customers == nil || deps.Outbox == nil || deps.Timeline == nil {
		t.Fatal("memory repositories must be initialized")
	}
	if deps.Store != nil {
		t.Error("memory driver must not open postgres store")
	}
	if deps.Producer != nil {
		t.Error("producer must be nil without brokers")
	}

	// Заглушки шлюзов должны быть заполнены демо-данными.
	if _, ok := deps.Catalog.(*catalog.MockGateway); !ok {
		t.Fatalf("catalog gateway = %T, want mock", deps.Catalog)
	}
	if _, ok := deps.Inventory.(*logistics.MockGateway); !ok {
		t.Fatalf("inventory gateway = %T, want mock", deps.Inventory)
	}

	product, err := deps.Catalog.Product(context.Background(), "JER-001")
	if err != nil {
		t.Fatalf("demo catalog must contain JER-001: %v", err)
	}
	if !product.IsActive {
		t.Error("demo product must be active")
	}

	reservation, err := deps.Inventory.Reserve(context.Background(), "JER-001", 10, "")
	if err != nil {
		t.Fatalf("demo inventory must cover JER-001: %v", err)
	}
	if reservation.DistributionCenterCode == "" {
		t.Error("reservation must pick a distribution center")
	}

	customer, err := deps.Customers.Get(context.Background(), "demo-customer-1")
	if err != nil {
		t.Fatalf("demo customer must exist: %v", err)
	}
	if customer.City == "" {
		t.Error("demo customer must carry delivery defaults")
	}
}

func TestNewDependenciesRealGateways(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CatalogBaseURL = "http://catalog.internal:8080"
	cfg.LogisticsBaseURL = "http://logistics.internal:8080"

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewDependencies: %v", err)
	}
	defer deps.Close()

	if _, ok := deps.Catalog.(*catalog.Client); !ok {
		t.Errorf("catalog gateway = %T, want http client", deps.Catalog)
	}
	if _, ok := deps.Inventory.(*logistics.Client); !ok {
		t.Errorf("inventory gateway = %T, want http client", deps.Inventory)
	}
}

func TestNewDependenciesUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	if _, err := NewDependencies(context.Background(), cfg, testLogger()); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}
