package keys

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	k1 := Generate()
	k2 := Generate()

	if !strings.HasPrefix(k1, Prefix) {
		t.Errorf("key missing prefix: %q", k1)
	}
	if k1 == k2 {
		t.Error("two generated keys should not collide")
	}
	// pb_ plus two 16-byte UUIDs hex-encoded.
	if want := len(Prefix) + 64; len(k1) != want {
		t.Errorf("key length = %d, want %d", len(k1), want)
	}
	if !IsKey(k1) {
		t.Errorf("IsKey should accept generated key %q", k1)
	}
	if IsKey("sk_something") || IsKey("pb_") {
		t.Error("IsKey should reject foreign and bare-prefix strings")
	}
}

func TestHashAndVerifyArgon2id(t *testing.T) {
	raw := Generate()

	hash, err := Hash(raw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected PHC format, got %q", hash)
	}

	match, err := Verify(raw, hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !match {
		t.Error("correct key should verify")
	}

	match, err = Verify("pb_wrong", hash)
	if err != nil {
		t.Fatalf("verify wrong key: %v", err)
	}
	if match {
		t.Error("wrong key must not verify")
	}
}

func TestVerifySHA256Formats(t *testing.T) {
	raw := "pb_legacy_key"
	bare := HashSHA256(raw)

	tests := []struct {
		name   string
		stored string
		key    string
		want   bool
	}{
		{"bare hex match", bare, raw, true},
		{"bare hex mismatch", bare, "pb_other", false},
		{"prefixed match", "sha256:" + bare, raw, true},
		{"prefixed mismatch", "sha256:" + bare, "pb_other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(tt.key, tt.stored)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectHashType(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{"$argon2id$v=19$m=48128,t=1,p=1$c2FsdA$aGFzaA", "argon2id"},
		{"sha256:" + strings.Repeat("ab", 32), "sha256"},
		{strings.Repeat("ab", 32), "sha256"},
		{strings.Repeat("zz", 32), "unknown"},
		{"plaintext", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := DetectHashType(tt.stored); got != tt.want {
			t.Errorf("DetectHashType(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

func TestVerifyUnknownHashType(t *testing.T) {
	if _, err := Verify("pb_key", "md5:abcdef"); !errors.Is(err, ErrUnknownHashType) {
		t.Fatalf("expected ErrUnknownHashType, got %v", err)
	}
}

func TestVerifyMalformedArgon2idDoesNotPanic(t *testing.T) {
	// t=0 makes the underlying argon2 library panic; Verify must convert
	// that to an error.
	malformed := "$argon2id$v=19$m=1024,t=0,p=0$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
	match, err := Verify("pb_key", malformed)
	if match {
		t.Error("malformed hash must not match")
	}
	if err == nil {
		t.Error("expected error for malformed hash")
	}
}
