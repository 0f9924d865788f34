// Package wallet resolves order owner handles to signing keys. Key encryption
// and storage live outside this process; the engine only sees the Resolver
// boundary.
package wallet

import (
	"errors"
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// Resolver maps an opaque owner handle to the private key that signs the
// order's transactions.
type Resolver interface {
	Resolve(owner string) (solana.PrivateKey, error)
}

// EnvResolver reads keys from environment variables named LIMITD_KEY_<handle>,
// falling back to SOLANA_PRIVATE_KEY_BASE58 for the empty handle.
type EnvResolver struct{}

func NewEnvResolver() EnvResolver {
	_ = godotenv.Load() // best-effort
	return EnvResolver{}
}

func (EnvResolver) Resolve(owner string) (solana.PrivateKey, error) {
	name := "SOLANA_PRIVATE_KEY_BASE58"
	if owner != "" {
		name = "LIMITD_KEY_" + owner
	}
	b58 := os.Getenv(name)
	if b58 == "" {
		return nil, errors.New(name + " not set")
	}
	key, err := solana.PrivateKeyFromBase58(b58)
	if err != nil {
		return nil, fmt.Errorf("parse key for %q: %w", owner, err)
	}
	return key, nil
}

// StaticResolver serves a fixed key set, used in tests and single-key deployments.
type StaticResolver map[string]solana.PrivateKey

func (r StaticResolver) Resolve(owner string) (solana.PrivateKey, error) {
	key, ok := r[owner]
	if !ok {
		return nil, fmt.Errorf("no key for owner %q", owner)
	}
	return key, nil
}
