// Package engine implements the conditional swap execution core: an order
// book of price-watching background tasks that plan, assemble, and settle
// tax-adjusted swaps when their target price is hit.
package engine

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/sasiyaluba/Jup-limit-order/internal/route"
)

// Status tracks an order through its lifecycle. Transitions are monotonic:
// Active -> Executing -> Filled|Failed, or Active -> Cancelled.
type Status int

const (
	StatusActive Status = iota
	StatusExecuting
	StatusFilled
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusExecuting:
		return "executing"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusFailed
}

// Spec is the caller-supplied order description. Mints arrive as base58
// strings and are validated by Place.
type Spec struct {
	Owner       string
	InputMint   string
	OutputMint  string
	TargetPrice float64
	Amount      uint64
	SlippageBps uint16
	TipLamports uint64 // 0 disables the relay bundle path
}

// Order is the registered form of a Spec. Immutable except Status.
type Order struct {
	ID          uuid.UUID
	Owner       string
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	TargetPrice float64
	Amount      uint64
	SlippageBps uint16
	TipLamports uint64
	Status      Status
}

// RouteProvider returns an executable swap route for the requested size.
type RouteProvider interface {
	Quote(ctx context.Context, user, inputMint, outputMint solana.PublicKey, amount uint64, slippageBps uint16) (*route.Route, error)
}

// Ledger is the chain surface the engine needs: block references, batched
// account reads, simulation, and the two broadcast modes.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	FetchAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)
	Simulate(ctx context.Context, tx *solana.Transaction) error
	Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	BroadcastAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Relay accepts ordered transaction bundles for priority inclusion.
type Relay interface {
	TipAccount() solana.PublicKey
	SubmitBundle(ctx context.Context, txs []*solana.Transaction) (string, error)
	BundleStatus(ctx context.Context, bundleID string) (string, error)
}
