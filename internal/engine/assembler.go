package engine

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
)

// Assembler compiles a plan into a signed versioned transaction, resolving
// any address lookup tables through the ledger so the compiled message can
// reference accounts by table index.
type Assembler struct {
	Ledger Ledger
}

// Assemble resolves the plan's lookup tables, compiles a message referencing
// them, and signs it with the payer's key. It does not submit.
func (a *Assembler) Assemble(ctx context.Context, plan *Plan, payer solana.PrivateKey, blockhash solana.Hash) (*solana.Transaction, error) {
	tables, err := a.resolveTables(ctx, plan.LookupTables)
	if err != nil {
		return nil, err
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(payer.PublicKey())}
	if len(tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}
	tx, err := solana.NewTransaction(plan.Instructions, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: compile message: %s", ErrAssembly, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: sign: %s", ErrAssembly, err)
	}
	return tx, nil
}

func (a *Assembler) resolveTables(ctx context.Context, keys []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	data, err := a.Ledger.FetchAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch lookup tables: %s", ErrAssembly, err)
	}
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(keys))
	for i, raw := range data {
		if raw == nil {
			return nil, fmt.Errorf("%w: lookup table %s does not exist", ErrAssembly, keys[i])
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: decode lookup table %s: %s", ErrAssembly, keys[i], err)
		}
		tables[keys[i]] = state.Addresses
	}
	return tables, nil
}
