package validators

import (
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

// validCardNumber backs the `card_number` struct tag: digits only (spaces
// tolerated), 13 to 19 of them, passing the Luhn checksum.
func validCardNumber(fl validator.FieldLevel) bool {
	digits, ok := normalizeCardNumber(fl.Field().String())
	if !ok {
		return false
	}
	return luhnValid(digits)
}

func normalizeCardNumber(raw string) (string, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(cleaned) < minCardDigits || len(cleaned) > maxCardDigits {
		return "", false
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return cleaned, true
}

func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateCardExpiry rejects cards whose expiry month has already passed.
// A card expiring this month is still accepted.
func ValidateCardExpiry(expMonth, expYear int, now time.Time) error {
	if expMonth < 1 || expMonth > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid expiry month").
			WithDetails(map[string]any{"field": "exp_month"})
	}
	if expYear < now.Year() || (expYear == now.Year() && expMonth < int(now.Month())) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card expired").
			WithDetails(map[string]any{"field": "exp_year"})
	}
	return nil
}

// ValidateCVC accepts 3 or 4 digit security codes.
func ValidateCVC(cvc string) error {
	trimmed := strings.TrimSpace(cvc)
	if len(trimmed) < 3 || len(trimmed) > 4 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid security code").
			WithDetails(map[string]any{"field": "cvc"})
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid security code").
				WithDetails(map[string]any{"field": "cvc"})
		}
	}
	return nil
}
