package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/medisupply/sales/internal/domain"
)

func TestErrorCategories(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category error
	}{
		{"customer required", domain.ErrCustomerRequired, domain.ErrValidation},
		{"items required", domain.ErrItemsRequired, domain.ErrValidation},
		{"order not found", domain.ErrOrderNotFound, domain.ErrNotFound},
		{"customer not found", domain.ErrCustomerNotFound, domain.ErrNotFound},
		{"customer inactive", domain.ErrCustomerInactive, domain.ErrValidation},
		{"invalid amount", &domain.InvalidAmountError{Field: "quantity", Value: "0"}, domain.ErrValidation},
		{"product not found", &domain.ProductNotFoundError{SKU: "JER-001"}, domain.ErrNotFound},
		{"inactive product", &domain.InactiveProductError{SKU: "JER-001"}, domain.ErrValidation},
		{"insufficient stock", &domain.InsufficientStockError{SKU: "JER-001", Requested: 10, Available: 3}, domain.ErrConflict},
		{"upstream unavailable", &domain.UpstreamUnavailableError{Service: "catalog", Cause: errors.New("timeout")}, domain.ErrUnavailable},
		{"invalid transition", &domain.InvalidStatusTransitionError{From: domain.OrderStatusPending, To: domain.OrderStatusCancelled}, domain.ErrValidation},
		{"not editable", &domain.OrderNotEditableError{Status: domain.OrderStatusConfirmed}, domain.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.category) {
				t.Errorf("expected %v to belong to category %v", tc.err, tc.category)
			}
		})
	}
}

func TestErrorCategories_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", &domain.InsufficientStockError{SKU: "VAC-001", Requested: 5, Available: 0})
	if !errors.Is(wrapped, domain.ErrConflict) {
		t.Error("wrapped error lost its category")
	}
	var stock *domain.InsufficientStockError
	if !errors.As(wrapped, &stock) {
		t.Fatal("wrapped error lost its type")
	}
	if stock.SKU != "VAC-001" {
		t.Errorf("unexpected payload: %+v", stock)
	}
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &domain.InsufficientStockError{SKU: "JER-001", Requested: 10, Available: 4}
	msg := err.Error()
	if !strings.Contains(msg, "JER-001") || !strings.Contains(msg, "Required: 10") || !strings.Contains(msg, "Available: 4") {
		t.Errorf("message must name sku and quantities, got %q", msg)
	}
}

func TestInvalidStatusTransitionError_Message(t *testing.T) {
	err := &domain.InvalidStatusTransitionError{
		From:    domain.OrderStatusPending,
		To:      domain.OrderStatusShipped,
		Allowed: domain.OrderStatusPending.AllowedTransitions(),
	}
	msg := err.Error()
	for _, fragment := range []string{"'pending'", "'shipped'", "confirmed"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("message %q missing %q", msg, fragment)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !domain.IsRetryable(&domain.UpstreamUnavailableError{Service: "logistics", Cause: errors.New("refused")}) {
		t.Error("upstream errors are retryable")
	}
	if domain.IsRetryable(domain.ErrOrderNotFound) {
		t.Error("not found is not retryable")
	}
}
