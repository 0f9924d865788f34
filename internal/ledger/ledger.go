// Package ledger wraps the Solana JSON-RPC surface the engine needs: block
// references, batched account reads, simulation, and broadcast.
package ledger

import (
	"context"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is a thin, commitment-aware wrapper over rpc.Client.
type Client struct {
	RPC    *rpc.Client
	Commit rpc.CommitmentType

	// Confirmation polling knobs for BroadcastAndConfirm.
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

func New(rpcURL, commit string) *Client {
	c := rpc.CommitmentConfirmed
	switch commit {
	case "processed":
		c = rpc.CommitmentProcessed
	case "finalized":
		c = rpc.CommitmentFinalized
	}
	return &Client{
		RPC:            rpc.New(rpcURL),
		Commit:         c,
		ConfirmTimeout: 60 * time.Second,
		PollInterval:   2 * time.Second,
	}
}

// LatestBlockhash returns a recent block reference usable for transaction assembly.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.RPC.GetLatestBlockhash(ctx, c.Commit)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// FetchAccounts batch-reads raw account data. The result has one entry per
// requested key; absent accounts yield a nil slice.
func (c *Client) FetchAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out, err := c.RPC.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("get multiple accounts: %w", err)
	}
	data := make([][]byte, len(keys))
	for i, acc := range out.Value {
		if acc == nil {
			continue
		}
		data[i] = acc.Data.GetBinary()
	}
	return data, nil
}

// Simulate dry-runs the transaction and returns an error if the ledger
// predicts on-chain failure.
func (c *Client) Simulate(ctx context.Context, tx *solana.Transaction) error {
	out, err := c.RPC.SimulateTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("simulate transaction: %w", err)
	}
	if out.Value != nil && out.Value.Err != nil {
		return fmt.Errorf("simulation failed: %v (logs: %v)", out.Value.Err, out.Value.Logs)
	}
	return nil
}

// Broadcast submits the transaction without waiting for inclusion. Preflight
// is skipped; callers simulate explicitly before broadcasting.
func (c *Client) Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: c.Commit,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// BroadcastAndConfirm submits the transaction and polls signature statuses
// until the configured commitment is reached or the timeout elapses.
func (c *Client) BroadcastAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.Broadcast(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return sig, fmt.Errorf("confirm %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
		out, err := c.RPC.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			continue // transient RPC error, keep polling
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}
		status := out.Value[0]
		if status.Err != nil {
			return sig, fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
		}
		if confirmed(status.ConfirmationStatus, c.Commit) {
			return sig, nil
		}
	}
}

func confirmed(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[rpc.ConfirmationStatusType]int{
		rpc.ConfirmationStatusProcessed: 0,
		rpc.ConfirmationStatusConfirmed: 1,
		rpc.ConfirmationStatusFinalized: 2,
	}
	wantRank := 1
	switch want {
	case rpc.CommitmentProcessed:
		wantRank = 0
	case rpc.CommitmentFinalized:
		wantRank = 2
	}
	got, ok := rank[status]
	return ok && got >= wantRank
}
