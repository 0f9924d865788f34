package engine

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// SubTax splits amount into the net kept by the order and the tax owed,
// where tax = floor(amount * bps / 10000). Defined for bps in [0,10000],
// so tax never exceeds amount.
func SubTax(amount uint64, bps uint16) (net, tax uint64) {
	b := uint64(bps)
	tax = (amount/10000)*b + (amount%10000)*b/10000
	return amount - tax, tax
}

// Planner fetches a route and wraps it with the tax transfers the fill owes.
type Planner struct {
	Routes     RouteProvider
	TaxAccount solana.PublicKey
	TaxBps     uint16
}

// Plan is an ordered instruction list ready for assembly.
type Plan struct {
	Instructions []solana.Instruction
	LookupTables []solana.PublicKey
	OutAmount    uint64
}

// Build produces the fill plan for the order. When the input is the native
// mint the tax is taken up front and the route is requested for the net
// amount; otherwise the tax comes out of the realized output, after the
// route instructions. Any route cleanup instruction goes last.
func (p *Planner) Build(ctx context.Context, user solana.PublicKey, order Order) (*Plan, error) {
	taxBeforeSwap := order.InputMint.Equals(solana.SolMint)

	var ixs []solana.Instruction
	swapAmount := order.Amount
	if taxBeforeSwap {
		net, tax := SubTax(order.Amount, p.TaxBps)
		ixs = append(ixs, system.NewTransferInstruction(tax, user, p.TaxAccount).Build())
		swapAmount = net
	}

	r, err := p.Routes.Quote(ctx, user, order.InputMint, order.OutputMint, swapAmount, order.SlippageBps)
	if err != nil {
		return nil, fmt.Errorf("fetch route: %w", err)
	}
	ixs = append(ixs, r.Instructions...)

	if !taxBeforeSwap && r.OutAmount != 0 {
		_, tax := SubTax(r.OutAmount, p.TaxBps)
		ixs = append(ixs, system.NewTransferInstruction(tax, user, p.TaxAccount).Build())
	}
	if r.Cleanup != nil {
		ixs = append(ixs, r.Cleanup)
	}

	return &Plan{
		Instructions: ixs,
		LookupTables: r.LookupTables,
		OutAmount:    r.OutAmount,
	}, nil
}
