package validators

import (
	"testing"
	"time"

	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

func TestLuhnValid(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   bool
	}{
		{name: "classic visa test number", number: "4242424242424242", want: true},
		{name: "decline suffix but luhn valid", number: "4200000000000000", want: true},
		{name: "checksum off by one", number: "4242424242424241", want: false},
		{name: "all zeros fails checksum", number: "4000000000000000", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := luhnValid(tc.number); got != tc.want {
				t.Fatalf("luhnValid(%q) = %v, want %v", tc.number, got, tc.want)
			}
		})
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	if digits, ok := normalizeCardNumber("4242 4242 4242 4242"); !ok || digits != "4242424242424242" {
		t.Fatalf("expected spaces stripped, got %q ok=%v", digits, ok)
	}
	if _, ok := normalizeCardNumber("4242"); ok {
		t.Fatalf("expected too-short number rejected")
	}
	if _, ok := normalizeCardNumber("4242424242424242424242"); ok {
		t.Fatalf("expected too-long number rejected")
	}
	if _, ok := normalizeCardNumber("4242-4242-4242-4242"); ok {
		t.Fatalf("expected non-digit separators rejected")
	}
}

func TestValidateCardExpiry(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	if err := ValidateCardExpiry(6, 2026, now); err != nil {
		t.Fatalf("card expiring this month should be accepted: %v", err)
	}
	if err := ValidateCardExpiry(12, 2030, now); err != nil {
		t.Fatalf("future expiry should be accepted: %v", err)
	}

	err := ValidateCardExpiry(5, 2026, now)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for past month, got %v", err)
	}
	err = ValidateCardExpiry(12, 2025, now)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for past year, got %v", err)
	}
	err = ValidateCardExpiry(13, 2030, now)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for month out of range, got %v", err)
	}
}

func TestValidateCVC(t *testing.T) {
	for _, good := range []string{"123", "0000"} {
		if err := ValidateCVC(good); err != nil {
			t.Fatalf("expected %q accepted: %v", good, err)
		}
	}
	for _, bad := range []string{"", "12", "12345", "12a"} {
		if err := ValidateCVC(bad); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected %q rejected", bad)
		}
	}
}
