package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sasiyaluba/Jup-limit-order/internal/metrics"
	"github.com/sasiyaluba/Jup-limit-order/internal/price"
	"github.com/sasiyaluba/Jup-limit-order/internal/wallet"
)

const (
	defaultPollInterval = 800 * time.Millisecond
	// Matching tolerance for |observed - target|.
	defaultEpsilon = 0.001
)

// Params wires the shared clients and policy knobs into a Book. The clients
// are constructed once per process and shared by every watcher.
type Params struct {
	Prices     price.Source
	Routes     RouteProvider
	Ledger     Ledger
	Relay      Relay
	Keys       wallet.Resolver
	TaxAccount solana.PublicKey
	TaxBps     uint16

	PollInterval time.Duration // defaults to 800ms
	Epsilon      float64       // defaults to 0.001
	Log          zerolog.Logger
}

// Book registers orders and owns their watcher tasks. Orders occupy the
// registry only while non-terminal; terminal statuses move to a completion
// table queryable via Status.
type Book struct {
	prices       price.Source
	keys         wallet.Resolver
	planner      *Planner
	assembler    *Assembler
	dispatcher   *Dispatcher
	ledger       Ledger
	pollInterval time.Duration
	epsilon      float64
	log          zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	orders  map[uuid.UUID]*Order
	cancels map[uuid.UUID]chan struct{}
	done    map[uuid.UUID]Status
}

func NewBook(p Params) (*Book, error) {
	if p.Prices == nil || p.Routes == nil || p.Ledger == nil || p.Relay == nil || p.Keys == nil {
		return nil, fmt.Errorf("book requires price, route, ledger, relay, and key clients")
	}
	if p.TaxBps > 10000 {
		return nil, fmt.Errorf("tax bps %d out of range [0,10000]", p.TaxBps)
	}
	if p.PollInterval <= 0 {
		p.PollInterval = defaultPollInterval
	}
	if p.Epsilon <= 0 {
		p.Epsilon = defaultEpsilon
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Book{
		prices:       p.Prices,
		keys:         p.Keys,
		planner:      &Planner{Routes: p.Routes, TaxAccount: p.TaxAccount, TaxBps: p.TaxBps},
		assembler:    &Assembler{Ledger: p.Ledger},
		dispatcher:   &Dispatcher{Ledger: p.Ledger, Relay: p.Relay, Log: p.Log},
		ledger:       p.Ledger,
		pollInterval: p.PollInterval,
		epsilon:      p.Epsilon,
		log:          p.Log,
		ctx:          ctx,
		stop:         stop,
		orders:       make(map[uuid.UUID]*Order),
		cancels:      make(map[uuid.UUID]chan struct{}),
		done:         make(map[uuid.UUID]Status),
	}, nil
}

// Close stops every watcher. In-flight execution attempts run to completion
// only as far as their network calls allow; state is not persisted.
func (b *Book) Close() { b.stop() }

// Place validates the spec, registers the order, and spawns its watcher.
// The returned id is available immediately; execution happens in the
// background.
func (b *Book) Place(spec Spec) (uuid.UUID, error) {
	order, err := validate(spec)
	if err != nil {
		return uuid.Nil, err
	}
	key, err := b.keys.Resolve(spec.Owner)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: resolve owner key: %s", ErrValidation, err)
	}

	order.ID = uuid.New()
	order.Status = StatusActive
	cancel := make(chan struct{})

	b.mu.Lock()
	b.orders[order.ID] = order
	b.cancels[order.ID] = cancel
	b.mu.Unlock()

	metrics.OrdersPlaced.Inc()
	metrics.ActiveOrders.Inc()
	b.log.Info().
		Str("order", order.ID.String()).
		Str("input", order.InputMint.String()).
		Str("output", order.OutputMint.String()).
		Float64("target", order.TargetPrice).
		Uint64("amount", order.Amount).
		Msg("order placed")

	w := &watcher{book: b, order: *order, key: key, cancel: cancel,
		log: b.log.With().Str("order", order.ID.String()).Logger()}
	go w.run(b.ctx)

	return order.ID, nil
}

// Cancel signals the order's watcher and removes the registry entries. It
// succeeds at most once per id; an order already terminal reports
// ErrNotFound. A watcher that has already begun executing finishes its
// attempt regardless.
func (b *Book) Cancel(id uuid.UUID) error {
	b.mu.Lock()
	cancel, ok := b.cancels[id]
	if !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	delete(b.cancels, id)
	order := b.orders[id]
	delete(b.orders, id)
	if order != nil && order.Status == StatusActive {
		b.done[id] = StatusCancelled
	}
	b.mu.Unlock()

	close(cancel)
	metrics.ActiveOrders.Dec()
	b.log.Info().Str("order", id.String()).Msg("order cancelled")
	return nil
}

// Status reports the order's current or terminal status.
func (b *Book) Status(id uuid.UUID) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if order, ok := b.orders[id]; ok {
		return order.Status, nil
	}
	if status, ok := b.done[id]; ok {
		return status, nil
	}
	return 0, ErrNotFound
}

func validate(spec Spec) (*Order, error) {
	if spec.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if spec.TargetPrice <= 0 {
		return nil, fmt.Errorf("%w: target price must be positive", ErrValidation)
	}
	if spec.SlippageBps > 10000 {
		return nil, fmt.Errorf("%w: slippage bps %d out of range [0,10000]", ErrValidation, spec.SlippageBps)
	}
	inputMint, err := solana.PublicKeyFromBase58(spec.InputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: input mint %q: %s", ErrValidation, spec.InputMint, err)
	}
	outputMint, err := solana.PublicKeyFromBase58(spec.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("%w: output mint %q: %s", ErrValidation, spec.OutputMint, err)
	}
	return &Order{
		Owner:       spec.Owner,
		InputMint:   inputMint,
		OutputMint:  outputMint,
		TargetPrice: spec.TargetPrice,
		Amount:      spec.Amount,
		SlippageBps: spec.SlippageBps,
		TipLamports: spec.TipLamports,
	}, nil
}

// markExecuting flips the order to Executing if it is still registered and
// waiting. Returns false when the order was cancelled out from under the
// watcher.
func (b *Book) markExecuting(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[id]
	if !ok || order.Status != StatusActive {
		return false
	}
	order.Status = StatusExecuting
	return true
}

// complete records the terminal status and releases the registry entries if
// a cancel has not already done so.
func (b *Book) complete(id uuid.UUID, status Status) {
	b.mu.Lock()
	if _, ok := b.orders[id]; ok {
		delete(b.orders, id)
		delete(b.cancels, id)
		metrics.ActiveOrders.Dec()
	}
	b.done[id] = status
	b.mu.Unlock()
	metrics.OrdersTerminal.WithLabelValues(status.String()).Inc()
}
