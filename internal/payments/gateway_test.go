package payments

import (
	"context"
	"testing"
	"time"
)

func TestMockGatewayApproves(t *testing.T) {
	t.Parallel()

	gw := NewMockGateway("mock-cb")
	result, err := gw.Charge(context.Background(), ChargeRequest{
		AmountCents: 1999,
		CardNumber:  "4242 4242 4242 4242",
		CardHolder:  "Claire Martin",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !result.Approved {
		t.Fatalf("expected approval, got decline: %s", result.DeclineReason)
	}
	if result.ProviderRef == "" {
		t.Fatalf("expected a provider reference on approval")
	}
}

func TestMockGatewayDeclinesZeroSuffix(t *testing.T) {
	t.Parallel()

	gw := NewMockGateway("")
	result, err := gw.Charge(context.Background(), ChargeRequest{
		AmountCents: 500,
		CardNumber:  "4000 0000 0000 0000",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if result.Approved {
		t.Fatalf("expected decline for 0000 suffix")
	}
	if result.DeclineReason == "" {
		t.Fatalf("expected a decline reason")
	}
	if result.ProviderRef != "" {
		t.Fatalf("declined charge must not carry a provider ref")
	}
}

func TestMockGatewayRejectsBadAmount(t *testing.T) {
	t.Parallel()

	gw := NewMockGateway("mock-cb")
	if _, err := gw.Charge(context.Background(), ChargeRequest{AmountCents: 0, CardNumber: "4242424242424242"}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestMockGatewayHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	gw := NewMockGateway("mock-cb")
	if _, err := gw.Charge(ctx, ChargeRequest{AmountCents: 100, CardNumber: "4242424242424242"}); err == nil {
		t.Fatalf("expected error for expired context")
	}
	if err := gw.Refund(ctx, "ref-1", 100); err == nil {
		t.Fatalf("expected refund error for expired context")
	}
}

func TestMockGatewayRefund(t *testing.T) {
	t.Parallel()

	gw := NewMockGateway("mock-cb")
	if err := gw.Refund(context.Background(), "ref-123", 1999); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if err := gw.Refund(context.Background(), "  ", 1999); err == nil {
		t.Fatalf("expected error for empty provider ref")
	}
	if err := gw.Refund(context.Background(), "ref-123", 0); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}
