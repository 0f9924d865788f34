package engine

import (
	"context"
	"sync"

	solana "github.com/gagliardetto/solana-go"

	"github.com/sasiyaluba/Jup-limit-order/internal/route"
)

type fakePrices struct {
	mu  sync.Mutex
	px  float64
	err error
}

func (f *fakePrices) Price(context.Context, solana.PublicKey) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.px, f.err
}

func (f *fakePrices) set(px float64, err error) {
	f.mu.Lock()
	f.px, f.err = px, err
	f.mu.Unlock()
}

type fakeRoutes struct {
	mu           sync.Mutex
	route        *route.Route
	err          error
	lastAmount   uint64
	lastSlippage uint16
}

func (f *fakeRoutes) Quote(_ context.Context, _, _, _ solana.PublicKey, amount uint64, slippageBps uint16) (*route.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAmount = amount
	f.lastSlippage = slippageBps
	if f.err != nil {
		return nil, f.err
	}
	return f.route, nil
}

type fakeLedger struct {
	mu          sync.Mutex
	blockhash   solana.Hash
	accounts    map[solana.PublicKey][]byte
	simulateErr error
	simulations int
	broadcasts  int
	confirms    int
	confirmGate chan struct{} // when set, BroadcastAndConfirm blocks until closed
}

func (f *fakeLedger) LatestBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, nil
}

func (f *fakeLedger) FetchAccounts(_ context.Context, keys []solana.PublicKey) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = f.accounts[key]
	}
	return out, nil
}

func (f *fakeLedger) Simulate(context.Context, *solana.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulations++
	return f.simulateErr
}

func (f *fakeLedger) Broadcast(context.Context, *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts++
	return solana.Signature{}, nil
}

func (f *fakeLedger) BroadcastAndConfirm(context.Context, *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	gate := f.confirmGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	f.confirms++
	f.mu.Unlock()
	return solana.Signature{}, nil
}

func (f *fakeLedger) counts() (simulations, broadcasts, confirms int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.simulations, f.broadcasts, f.confirms
}

type fakeRelay struct {
	mu          sync.Mutex
	tip         solana.PublicKey
	bundles     [][]*solana.Transaction
	submitErr   error
	status      string
	statusPolls int
}

func (f *fakeRelay) TipAccount() solana.PublicKey { return f.tip }

func (f *fakeRelay) SubmitBundle(_ context.Context, txs []*solana.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.bundles = append(f.bundles, txs)
	return "bundle-1", nil
}

func (f *fakeRelay) BundleStatus(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusPolls++
	if f.status == "" {
		return "unknown", nil
	}
	return f.status, nil
}

// markerInstruction builds an instruction whose only account is the user, so
// it compiles under any payer.
func markerInstruction(user solana.PublicKey, data ...byte) solana.Instruction {
	return solana.NewInstruction(
		solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"),
		solana.AccountMetaSlice{{PublicKey: user, IsSigner: true, IsWritable: true}},
		data,
	)
}
