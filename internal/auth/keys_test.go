package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrGenerateKeyPair_GeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "keys", "private.pem")
	pub := filepath.Join(dir, "keys", "public.pem")

	kp, generated, err := LoadOrGenerateKeyPair(priv, pub, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !generated {
		t.Fatalf("expected a new key pair")
	}

	info, err := os.Stat(priv)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("private key permissions = %o, want 0600", info.Mode().Perm())
	}

	again, generated, err := LoadOrGenerateKeyPair(priv, pub, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if generated {
		t.Fatalf("expected existing key pair to be loaded")
	}
	if string(again.PublicPEM) != string(kp.PublicPEM) {
		t.Fatalf("public key changed between loads")
	}
}

func TestLoadOrGenerateKeyPair_NoAutogenerate(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadOrGenerateKeyPair(filepath.Join(dir, "private.pem"), filepath.Join(dir, "public.pem"), false)
	if err == nil {
		t.Fatalf("expected error for missing keys without autogenerate")
	}
}

func TestLoadOrGenerateKeyPair_CorruptKeyIsNotReplaced(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	if err := os.WriteFile(priv, []byte("not-a-key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadOrGenerateKeyPair(priv, filepath.Join(dir, "public.pem"), true); err == nil {
		t.Fatalf("expected error for corrupt private key")
	}
}

func TestLoadKeyPair_RejectsMismatchedHalves(t *testing.T) {
	dir := t.TempDir()
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	if err := SaveKeyPair(priv, pub, KeyPair{Private: a.Private, PublicPEM: b.PublicPEM}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadKeyPair(priv, pub); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
