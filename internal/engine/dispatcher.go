package engine

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"

	"github.com/sasiyaluba/Jup-limit-order/internal/metrics"
)

// Dispatcher settles an assembled transaction, either broadcasting it
// directly or bundling it with a tip payment through the relay.
type Dispatcher struct {
	Ledger Ledger
	Relay  Relay
	Log    zerolog.Logger
}

// Settle simulates the transaction and, on success, submits it. A simulation
// failure aborts before anything reaches the chain. With a tip the swap is
// paired with a tip transfer and submitted as an ordered bundle; the bundle
// status is polled once and recorded, never retried.
func (d *Dispatcher) Settle(ctx context.Context, tx *solana.Transaction, payer solana.PrivateKey, blockhash solana.Hash, tipLamports uint64) error {
	if err := d.Ledger.Simulate(ctx, tx); err != nil {
		return fmt.Errorf("%w: %s", ErrSimulation, err)
	}

	if tipLamports == 0 {
		sig, err := d.Ledger.BroadcastAndConfirm(ctx, tx)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBroadcast, err)
		}
		d.Log.Info().Str("signature", sig.String()).Msg("swap confirmed")
		return nil
	}

	tipTx, err := d.buildTipTransaction(payer, blockhash, tipLamports)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRelay, err)
	}
	bundleID, err := d.Relay.SubmitBundle(ctx, []*solana.Transaction{tx, tipTx})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRelay, err)
	}
	metrics.BundlesSubmitted.Inc()

	status, err := d.Relay.BundleStatus(ctx, bundleID)
	if err != nil {
		d.Log.Warn().Err(err).Str("bundle", bundleID).Msg("bundle status poll failed")
		return nil
	}
	d.Log.Info().Str("bundle", bundleID).Str("status", status).Msg("bundle submitted")
	return nil
}

func (d *Dispatcher) buildTipTransaction(payer solana.PrivateKey, blockhash solana.Hash, tipLamports uint64) (*solana.Transaction, error) {
	tipTx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(tipLamports, payer.PublicKey(), d.Relay.TipAccount()).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return nil, err
	}
	if _, err := tipTx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tipTx, nil
}
