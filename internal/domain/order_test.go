package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// helper для создания заказа в состоянии in_progress.
func makeOrder() domain.Order {
	return domain.NewOrder("order-1", "client-1", "article-1", 4, decimal.RequireFromString("10.00"), "", time.Now().UTC())
}

func TestNewOrder_InitialState(t *testing.T) {
	order := makeOrder()

	if order.Type != domain.OrderTypeInProgress || order.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected initial state %s/%s", order.Type, order.Status)
	}
	if !order.Total().Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected total 40.00, got %s", order.Total())
	}
	if order.ValidatedAt != nil {
		t.Fatal("validatedAt must be empty before validation")
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderSetters_RecomputeTotal(t *testing.T) {
	order := makeOrder()

	order.SetQuantity(7)
	if !order.Total().Equal(decimal.RequireFromString("70")) {
		t.Fatalf("expected total 70 after quantity change, got %s", order.Total())
	}

	order.SetUnitPrice(decimal.RequireFromString("2.50"))
	if !order.Total().Equal(decimal.RequireFromString("17.50")) {
		t.Fatalf("expected total 17.50 after price change, got %s", order.Total())
	}
}

func TestOrderTransitions(t *testing.T) {
	order := makeOrder()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	order.MarkValidated(now)
	if !order.IsValidated() || order.Status != domain.OrderStatusProcessed {
		t.Fatalf("unexpected state after validation %s/%s", order.Type, order.Status)
	}
	if order.ValidatedAt == nil || !order.ValidatedAt.Equal(now) {
		t.Fatalf("expected validatedAt %v, got %v", now, order.ValidatedAt)
	}

	order.MarkDelivered()
	if !order.IsValidated() || order.Status != domain.OrderStatusDelivered {
		t.Fatalf("delivery must keep validated type, got %s/%s", order.Type, order.Status)
	}

	order.MarkCancelled()
	if !order.IsCancelled() || order.Status != domain.OrderStatusCancelled {
		t.Fatalf("unexpected state after cancel %s/%s", order.Type, order.Status)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no client",
			mut: func(o *domain.Order) {
				o.ClientID = ""
			},
		},
		{
			name: "zero quantity",
			mut: func(o *domain.Order) {
				o.SetQuantity(0)
			},
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.SetUnitPrice(decimal.NewFromInt(-1))
			},
		},
		{
			name: "unknown type",
			mut: func(o *domain.Order) {
				o.Type = "archived"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestParseOrderEnums(t *testing.T) {
	if got, err := domain.ParseOrderType(" Validated "); err != nil || got != domain.OrderTypeValidated {
		t.Fatalf("ParseOrderType() = %q, %v", got, err)
	}
	if _, err := domain.ParseOrderType("done"); err != domain.ErrUnknownOrderType {
		t.Fatalf("expected ErrUnknownOrderType, got %v", err)
	}
	if got, err := domain.ParseOrderStatus("DELIVERED"); err != nil || got != domain.OrderStatusDelivered {
		t.Fatalf("ParseOrderStatus() = %q, %v", got, err)
	}
	if _, err := domain.ParseOrderStatus("shipped"); err != domain.ErrUnknownOrderStatus {
		t.Fatalf("expected ErrUnknownOrderStatus, got %v", err)
	}
}
