package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("correct horse battery", hash) {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword("wrong password", hash) {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestCheckPasswordRejectsGarbageHash(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Fatalf("expected malformed stored hash to fail verification")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if err := ValidatePassword("long enough password"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}
