// Package price hosts the market price sources the order watchers poll.
package price

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
)

const (
	// ProviderJupiter polls the Jupiter price v2 HTTP API per request.
	ProviderJupiter = "jupiter"
	// ProviderBinance streams trades from Binance public websockets and serves the last seen price.
	ProviderBinance = "binance"
)

// Source answers the current market price for a mint, quoted in USD.
type Source interface {
	Price(ctx context.Context, mint solana.PublicKey) (float64, error)
}
