package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusCreated, OrderStatusValidated},
		{OrderStatusCreated, OrderStatusPaid},
		{OrderStatusCreated, OrderStatusCancelled},
		{OrderStatusValidated, OrderStatusPaid},
		{OrderStatusValidated, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusShipped},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusRefunded, OrderStatusCreated},
		{OrderStatusPaid, OrderStatusCreated},
		{OrderStatusCreated, OrderStatusShipped},
	}
	for _, tt := range denied {
		if tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be denied", tt.from, tt.to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusCreated, OrderStatusValidated, OrderStatusPaid, OrderStatusShipped} {
		if status.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestOrderStatusPayable(t *testing.T) {
	if !OrderStatusCreated.Payable() || !OrderStatusValidated.Payable() {
		t.Fatal("created and validated orders must accept payment attempts")
	}
	for _, status := range []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded} {
		if status.Payable() {
			t.Fatalf("%s must not accept payment attempts", status)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("paid")
	if err != nil || status != OrderStatusPaid {
		t.Fatalf("unexpected parse result: %v %v", status, err)
	}
	if _, err := ParseOrderStatus("unknown"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestDeliveryStatusTransitions(t *testing.T) {
	if !DeliveryStatusPrepared.CanTransitionTo(DeliveryStatusInTransit) {
		t.Fatal("prepared -> in_transit must be allowed")
	}
	if !DeliveryStatusInTransit.CanTransitionTo(DeliveryStatusDelivered) {
		t.Fatal("in_transit -> delivered must be allowed")
	}
	if DeliveryStatusPrepared.CanTransitionTo(DeliveryStatusDelivered) {
		t.Fatal("shipments cannot skip transit")
	}
	if DeliveryStatusDelivered.CanTransitionTo(DeliveryStatusPrepared) {
		t.Fatal("delivered is terminal")
	}
}
