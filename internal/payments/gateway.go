package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Gateway is the card authorizer boundary. Declines are results, not errors:
// an error from Charge means the authorizer itself failed.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, providerRef string, amountCents int) error
}

// ChargeRequest carries an authorization attempt. Card fields arrive already
// format-validated at the API boundary; the mock decides on the number alone
// but a real processor needs the full card.
type ChargeRequest struct {
	AmountCents    int
	CardNumber     string
	CardHolder     string
	ExpMonth       int
	ExpYear        int
	CVC            string
	IdempotencyKey string
}

// ChargeResult is the authorizer's verdict.
type ChargeResult struct {
	Approved      bool
	ProviderRef   string
	DeclineReason string
}

const declineSuffix = "0000"

// MockGateway simulates a card processor: any card whose number ends in 0000
// is declined, everything else is approved with a fresh reference.
type MockGateway struct {
	provider string
}

// NewMockGateway builds the simulated processor.
func NewMockGateway(provider string) *MockGateway {
	if provider == "" {
		provider = "mock-cb"
	}
	return &MockGateway{provider: provider}
}

// Provider names the simulated processor for payment records.
func (g *MockGateway) Provider() string {
	return g.provider
}

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("authorizer unavailable: %w", err)
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", req.AmountCents)
	}
	digits := strings.ReplaceAll(req.CardNumber, " ", "")
	if strings.HasSuffix(digits, declineSuffix) {
		return &ChargeResult{
			Approved:      false,
			DeclineReason: "card declined by issuer",
		}, nil
	}
	return &ChargeResult{
		Approved:    true,
		ProviderRef: uuid.NewString(),
	}, nil
}

func (g *MockGateway) Refund(ctx context.Context, providerRef string, amountCents int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("authorizer unavailable: %w", err)
	}
	if strings.TrimSpace(providerRef) == "" {
		return fmt.Errorf("provider ref required for refund")
	}
	if amountCents <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amountCents)
	}
	return nil
}
