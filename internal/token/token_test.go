package token

import "testing"

func TestNewAndVerify(t *testing.T) {
	plaintext, hash, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if plaintext == "" || len(hash) != 32 {
		t.Fatalf("unexpected token material: %q, %d bytes", plaintext, len(hash))
	}
	if !Verify(plaintext, hash) {
		t.Fatalf("token must verify against its own hash")
	}
	if Verify(plaintext+"x", hash) {
		t.Fatalf("tampered token must not verify")
	}
	if Verify("", hash) {
		t.Fatalf("empty token must not verify")
	}
}

func TestNew_Unique(t *testing.T) {
	a, _, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, _, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
}
