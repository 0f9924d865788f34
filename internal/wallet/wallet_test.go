package wallet

import (
	"os"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

func TestEnvResolverDefaultHandle(t *testing.T) {
	w := solana.NewWallet()
	os.Setenv("SOLANA_PRIVATE_KEY_BASE58", w.PrivateKey.String())
	defer os.Unsetenv("SOLANA_PRIVATE_KEY_BASE58")

	key, err := NewEnvResolver().Resolve("")
	if err != nil {
		t.Fatalf("expected key, got error: %v", err)
	}
	if !key.PublicKey().Equals(w.PublicKey()) {
		t.Fatalf("expected public key %s, got %s", w.PublicKey(), key.PublicKey())
	}
}

func TestEnvResolverNamedHandle(t *testing.T) {
	w := solana.NewWallet()
	os.Setenv("LIMITD_KEY_alice", w.PrivateKey.String())
	defer os.Unsetenv("LIMITD_KEY_alice")

	key, err := EnvResolver{}.Resolve("alice")
	if err != nil {
		t.Fatalf("expected key, got error: %v", err)
	}
	if !key.PublicKey().Equals(w.PublicKey()) {
		t.Fatalf("resolved wrong key")
	}
}

func TestEnvResolverMissing(t *testing.T) {
	os.Unsetenv("LIMITD_KEY_bob")
	if _, err := (EnvResolver{}).Resolve("bob"); err == nil {
		t.Fatalf("expected error when env missing")
	}
}

func TestStaticResolver(t *testing.T) {
	w := solana.NewWallet()
	r := StaticResolver{"alice": w.PrivateKey}
	if _, err := r.Resolve("alice"); err != nil {
		t.Fatalf("expected key: %v", err)
	}
	if _, err := r.Resolve("bob"); err == nil {
		t.Fatalf("expected error for unknown owner")
	}
}
