package crypto

import (
	"bytes"
	"errors"
	"testing"
)

var binding = []byte("local/savedShifts")

func TestSealOpenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "hex key", key: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"},
		{name: "base64 key", key: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="},
		{name: "passphrase", key: "correct horse battery staple"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc, err := New(tc.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !svc.Configured() {
				t.Fatal("expected service to be configured")
			}
			plain := []byte(`[{"id":"a"}]`)
			sealed, err := svc.Seal(plain, binding)
			if err != nil {
				t.Fatalf("seal failed: %v", err)
			}
			if bytes.Contains(sealed, plain) {
				t.Fatal("expected sealed value to hide the plaintext")
			}
			if sealed[0] != sealVersion {
				t.Fatalf("expected version prefix %d, got %d", sealVersion, sealed[0])
			}
			opened, err := svc.Open(sealed, binding)
			if err != nil {
				t.Fatalf("open failed: %v", err)
			}
			if !bytes.Equal(opened, plain) {
				t.Fatalf("expected %q, got %q", plain, opened)
			}
		})
	}
}

func TestOpenRejectsOtherBinding(t *testing.T) {
	svc, _ := New("passphrase")
	sealed, err := svc.Seal([]byte("payload"), binding)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := svc.Open(sealed, []byte("bob/savedShifts")); err == nil {
		t.Fatal("expected a value moved to another key to fail to open")
	}
}

func TestUnconfiguredServicePassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Configured() {
		t.Fatal("expected empty key to leave service unconfigured")
	}
	plain := []byte("plain")
	sealed, err := svc.Seal(plain, binding)
	if err != nil || !bytes.Equal(sealed, plain) {
		t.Fatalf("expected pass-through, got %q (%v)", sealed, err)
	}
}

func TestPassphraseDerivationIsStable(t *testing.T) {
	a, _ := New("same passphrase")
	b, _ := New("same passphrase")
	sealed, err := a.Seal([]byte("payload"), binding)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	opened, err := b.Open(sealed, binding)
	if err != nil {
		t.Fatalf("expected second service to open: %v", err)
	}
	if string(opened) != "payload" {
		t.Fatalf("unexpected plaintext %q", opened)
	}
}

func TestOpenRejectsMalformed(t *testing.T) {
	svc, _ := New("passphrase")
	if _, err := svc.Open([]byte{sealVersion, 2, 3}, binding); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
	if _, err := svc.Open([]byte{9, 1, 2, 3}, binding); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}
