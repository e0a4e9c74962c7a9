package security_test

import (
	"testing"

	"github.com/pvalette/boutique-backend/pkg/config"
	"github.com/pvalette/boutique-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	if err := security.ValidatePasswordStrength("Secret123!"); err != nil {
		t.Fatalf("expected strong password to pass: %v", err)
	}

	weak := []string{
		"short1!",     // too short
		"alllower1!",  // no uppercase
		"ALLUPPER1!",  // no lowercase
		"NoDigits!!",  // no digit
		"NoSpecial11", // no special character
	}
	for _, password := range weak {
		if err := security.ValidatePasswordStrength(password); err == nil {
			t.Fatalf("expected %q to be rejected", password)
		}
	}
}
