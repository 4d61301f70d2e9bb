package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/domain"
	"github.com/medisupply/sales/internal/gateway/catalog"
	"github.com/medisupply/sales/internal/gateway/logistics"
	"github.com/medisupply/sales/internal/messaging/kafka"
	"github.com/medisupply/sales/internal/storage/memory"
	"github.com/medisupply/sales/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Orders    domain.OrderRepository
	Customers domain.CustomerRepository
	Outbox    domain.OutboxRepository
	Timeline  domain.TimelineRepository

	Catalog   domain.CatalogGateway
	Inventory domain.InventoryGateway

	Store    *postgres.Store
	Producer *kafka.Producer

	Logger *log.Entry
}

// NewDependencies инициализирует хранилище, шлюзы и Kafka по конфигурации.
// При пустых URL внешних сервисов подставляются заглушки с демо-данными.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		logger.Info("postgres storage initialized")

	case StorageDriverMemory:
		customers := memory.NewCustomerRepository()
		seedDemoCustomers(customers)
		deps.Orders = memory.NewOrderRepository()
		deps.Customers = customers
		deps.Outbox = memory.NewOutboxRepository()
		deps.Timeline = memory.NewTimelineRepository()
		logger.Info("in-memory storage initialized")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	deps.Catalog, deps.Inventory = buildGateways(cfg, logger)

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("continuing without kafka producer")
	}
	deps.Producer = producer

	return deps, nil
}

// Close освобождает внешние ресурсы в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

func buildGateways(cfg Config, logger *log.Entry) (domain.CatalogGateway, domain.InventoryGateway) {
	var catalogGw domain.CatalogGateway
	var inventoryGw domain.InventoryGateway

	if cfg.CatalogBaseURL != "" {
		catalogGw = catalog.NewClient(cfg.CatalogBaseURL, cfg.GatewayTimeout, logger.WithField("gateway", "catalog"))
	} else {
		mock := catalog.NewMockGateway()
		seedDemoCatalog(mock)
		catalogGw = mock
		logger.Warn("SALES_CATALOG_URL is not set, using built-in catalog stub")
	}

	if cfg.LogisticsBaseURL != "" {
		inventoryGw = logistics.NewClient(cfg.LogisticsBaseURL, cfg.GatewayTimeout, logger.WithField("gateway", "logistics"))
	} else {
		mock := logistics.NewMockGateway()
		seedDemoInventory(mock)
		inventoryGw = mock
		logger.Warn("SALES_LOGISTICS_URL is not set, using built-in logistics stub")
	}

	return catalogGw, inventoryGw
}

// Демо-данные для запуска без внешних сервисов и базы.

func seedDemoCustomers(repo *memory.CustomerRepository) {
	repo.Put(domain.Customer{
		ID:           "demo-customer-1",
		BusinessName: "Clinica San Rafael",
		Address:      "Calle 10 #5-51",
		City:         "Bogota",
		Department:   "Cundinamarca",
		IsActive:     true,
	})
	repo.Put(domain.Customer{
		ID:           "demo-customer-2",
		BusinessName: "Hospital Pablo Tobon",
		Address:      "Calle 78B #69-240",
		City:         "Medellin",
		Department:   "Antioquia",
		IsActive:     true,
	})
}

func seedDemoCatalog(mock *catalog.MockGateway) {
	mock.Add(domain.ProductInfo{
		SKU:       "JER-001",
		Name:      "Jeringa desechable 5ml",
		UnitPrice: decimal.RequireFromString("350.00"),
		IsActive:  true,
	})
	mock.Add(domain.ProductInfo{
		SKU:       "GUA-010",
		Name:      "Guantes de nitrilo caja x100",
		UnitPrice: decimal.RequireFromString("28900.00"),
		IsActive:  true,
	})
	mock.Add(domain.ProductInfo{
		SKU:       "VAC-001",
		Name:      "Vacuna antigripal",
		UnitPrice: decimal.RequireFromString("42000.00"),
		IsActive:  true,
	})
}

func seedDemoInventory(mock *logistics.MockGateway) {
	mock.Set("JER-001",
		domain.CenterStock{Code: "DC-BOG", Name: "Centro Bogota", Available: 500},
		domain.CenterStock{Code: "DC-MED", Name: "Centro Medellin", Available: 200},
	)
	mock.Set("GUA-010",
		domain.CenterStock{Code: "DC-BOG", Name: "Centro Bogota", Available: 120},
	)
	mock.Set("VAC-001",
		domain.CenterStock{Code: "DC-MED", Name: "Centro Medellin", Available: 80},
	)
}
