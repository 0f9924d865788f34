package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

func assembledTransaction(t *testing.T, payer *solana.Wallet) *solana.Transaction {
	t.Helper()
	assembler := &Assembler{Ledger: &fakeLedger{}}
	plan := &Plan{Instructions: []solana.Instruction{markerInstruction(payer.PublicKey(), 1)}}
	tx, err := assembler.Assemble(context.Background(), plan, payer.PrivateKey, solana.Hash{})
	if err != nil {
		t.Fatalf("assemble fixture: %v", err)
	}
	return tx
}

func TestSettleSimulationFailureAborts(t *testing.T) {
	payer := solana.NewWallet()
	ledger := &fakeLedger{simulateErr: fmt.Errorf("program error")}
	relay := &fakeRelay{tip: solana.NewWallet().PublicKey()}
	d := &Dispatcher{Ledger: ledger, Relay: relay, Log: zerolog.Nop()}

	err := d.Settle(context.Background(), assembledTransaction(t, payer), payer.PrivateKey, solana.Hash{}, 0)
	if !errors.Is(err, ErrSimulation) {
		t.Fatalf("expected ErrSimulation, got %v", err)
	}
	_, broadcasts, confirms := ledger.counts()
	if broadcasts != 0 || confirms != 0 {
		t.Fatalf("nothing may be broadcast after failed simulation")
	}
	if len(relay.bundles) != 0 {
		t.Fatalf("no bundle may be submitted after failed simulation")
	}
}

func TestSettleDirectPath(t *testing.T) {
	payer := solana.NewWallet()
	ledger := &fakeLedger{}
	relay := &fakeRelay{tip: solana.NewWallet().PublicKey()}
	d := &Dispatcher{Ledger: ledger, Relay: relay, Log: zerolog.Nop()}

	if err := d.Settle(context.Background(), assembledTransaction(t, payer), payer.PrivateKey, solana.Hash{}, 0); err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	simulations, _, confirms := ledger.counts()
	if simulations != 1 || confirms != 1 {
		t.Fatalf("expected one simulation and one confirmed broadcast, got %d/%d", simulations, confirms)
	}
	if len(relay.bundles) != 0 {
		t.Fatalf("direct path must not touch the relay")
	}
}

func TestSettleBundlePath(t *testing.T) {
	payer := solana.NewWallet()
	tipAccount := solana.NewWallet().PublicKey()
	ledger := &fakeLedger{}
	relay := &fakeRelay{tip: tipAccount, status: "confirmed"}
	d := &Dispatcher{Ledger: ledger, Relay: relay, Log: zerolog.Nop()}

	swapTx := assembledTransaction(t, payer)
	if err := d.Settle(context.Background(), swapTx, payer.PrivateKey, solana.Hash{}, 5_000); err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if len(relay.bundles) != 1 {
		t.Fatalf("expected one bundle, got %d", len(relay.bundles))
	}
	bundle := relay.bundles[0]
	if len(bundle) != 2 {
		t.Fatalf("expected [swap, tip] bundle, got %d transactions", len(bundle))
	}
	if bundle[0] != swapTx {
		t.Fatalf("swap transaction must lead the bundle")
	}

	tipIx := bundle[1].Message.Instructions[0]
	if lamports := binary.LittleEndian.Uint64(tipIx.Data[4:]); lamports != 5_000 {
		t.Fatalf("tip transfer = %d lamports, want 5000", lamports)
	}
	found := false
	for _, key := range bundle[1].Message.AccountKeys {
		if key.Equals(tipAccount) {
			found = true
		}
	}
	if !found {
		t.Fatalf("tip transaction does not reference the tip account")
	}

	if relay.statusPolls != 1 {
		t.Fatalf("bundle status must be polled exactly once, got %d", relay.statusPolls)
	}
	_, _, confirms := ledger.counts()
	if confirms != 0 {
		t.Fatalf("bundle path must not broadcast directly")
	}
}

func TestSettleRelayError(t *testing.T) {
	payer := solana.NewWallet()
	ledger := &fakeLedger{}
	relay := &fakeRelay{tip: solana.NewWallet().PublicKey(), submitErr: fmt.Errorf("rate limited")}
	d := &Dispatcher{Ledger: ledger, Relay: relay, Log: zerolog.Nop()}

	err := d.Settle(context.Background(), assembledTransaction(t, payer), payer.PrivateKey, solana.Hash{}, 1)
	if !errors.Is(err, ErrRelay) {
		t.Fatalf("expected ErrRelay, got %v", err)
	}
}
