package engine

import (
	"context"
	"math"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/sasiyaluba/Jup-limit-order/internal/metrics"
)

// watcher is the per-order background task. It polls the price source at a
// fixed cadence, racing each iteration against the cancellation signal, and
// drives a single execution attempt once the target price is hit.
type watcher struct {
	book   *Book
	order  Order
	key    solana.PrivateKey
	cancel chan struct{}
	log    zerolog.Logger
}

func (w *watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.book.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.cancel:
			w.finish(StatusCancelled, nil)
			return
		case <-ctx.Done():
			w.finish(StatusCancelled, ctx.Err())
			return
		case <-ticker.C:
		}

		// Cancellation wins when both are ready in the same iteration.
		select {
		case <-w.cancel:
			w.finish(StatusCancelled, nil)
			return
		default:
		}

		observed, err := w.book.prices.Price(ctx, w.order.InputMint)
		if err != nil {
			metrics.PricePolls.WithLabelValues("error").Inc()
			w.log.Warn().Err(err).Msg("price poll failed")
			continue
		}
		metrics.PricePolls.WithLabelValues("ok").Inc()

		if math.Abs(observed-w.order.TargetPrice) >= w.book.epsilon {
			continue
		}

		if !w.book.markExecuting(w.order.ID) {
			// Cancelled between the poll and the transition.
			w.finish(StatusCancelled, nil)
			return
		}
		w.log.Info().Float64("observed", observed).Msg("target price hit, executing")

		// From here the attempt runs to a terminal state; cancellation is no
		// longer observed.
		if err := w.execute(ctx); err != nil {
			w.log.Error().Err(err).Msg("execution failed")
			w.finish(StatusFailed, err)
			return
		}
		w.finish(StatusFilled, nil)
		return
	}
}

// execute performs the single fill attempt: plan, assemble, settle.
func (w *watcher) execute(ctx context.Context) error {
	user := w.key.PublicKey()

	plan, err := w.book.planner.Build(ctx, user, w.order)
	if err != nil {
		return err
	}
	blockhash, err := w.book.ledger.LatestBlockhash(ctx)
	if err != nil {
		return err
	}
	tx, err := w.book.assembler.Assemble(ctx, plan, w.key, blockhash)
	if err != nil {
		return err
	}
	return w.book.dispatcher.Settle(ctx, tx, w.key, blockhash, w.order.TipLamports)
}

func (w *watcher) finish(status Status, err error) {
	w.book.complete(w.order.ID, status)
	event := w.log.Info()
	if status == StatusFailed {
		event = w.log.Error().Err(err)
	}
	event.Str("status", status.String()).Msg("order finished")
}
