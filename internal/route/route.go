// Package route talks to the Jupiter v6 aggregator and turns its responses
// into executable instruction lists.
package route

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
)

// ErrNoRoute reports that the aggregator found no viable path between the
// requested mints at the requested size.
var ErrNoRoute = errors.New("no viable route")

// Route is the ephemeral result of a quote: the realized output estimate,
// the ordered instructions to execute it, and the lookup tables they reference.
type Route struct {
	OutAmount    uint64
	Instructions []solana.Instruction
	LookupTables []solana.PublicKey
	Cleanup      solana.Instruction // nil when the route needs no teardown
}

// Client queries the Jupiter quote API.
type Client struct {
	Base string
	Http *http.Client
}

func New(base string) *Client {
	return &Client{
		Base: base,
		Http: &http.Client{Timeout: 8 * time.Second},
	}
}

type apiAccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type apiInstruction struct {
	ProgramID string           `json:"programId"`
	Accounts  []apiAccountMeta `json:"accounts"`
	Data      string           `json:"data"` // base64
}

func (ix *apiInstruction) decode() (solana.Instruction, error) {
	program, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id %q: %w", ix.ProgramID, err)
	}
	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		key, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", acc.Pubkey, err)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}
	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("instruction data: %w", err)
	}
	return solana.NewInstruction(program, metas, data), nil
}

type swapInstructionsResponse struct {
	ComputeBudgetInstructions   []apiInstruction `json:"computeBudgetInstructions"`
	SetupInstructions           []apiInstruction `json:"setupInstructions"`
	SwapInstruction             *apiInstruction  `json:"swapInstruction"`
	CleanupInstruction          *apiInstruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string         `json:"addressLookupTableAddresses"`
}

// Quote fetches a route for amount of inputMint into outputMint and resolves
// it into instructions executable by user.
func (c *Client) Quote(ctx context.Context, user, inputMint, outputMint solana.PublicKey, amount uint64, slippageBps uint16) (*Route, error) {
	quoteRaw, outAmount, err := c.fetchQuote(ctx, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"userPublicKey":    user.String(),
		"wrapAndUnwrapSol": true,
		"quoteResponse":    quoteRaw,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/v6/swap-instructions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap-instructions status %d", resp.StatusCode)
	}

	var sr swapInstructionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if sr.SwapInstruction == nil {
		return nil, fmt.Errorf("%w: response missing swap instruction", ErrNoRoute)
	}

	route := &Route{OutAmount: outAmount}
	for _, group := range [][]apiInstruction{sr.ComputeBudgetInstructions, sr.SetupInstructions} {
		for i := range group {
			ix, err := group[i].decode()
			if err != nil {
				return nil, err
			}
			route.Instructions = append(route.Instructions, ix)
		}
	}
	swapIx, err := sr.SwapInstruction.decode()
	if err != nil {
		return nil, err
	}
	route.Instructions = append(route.Instructions, swapIx)

	if sr.CleanupInstruction != nil {
		cleanup, err := sr.CleanupInstruction.decode()
		if err != nil {
			return nil, err
		}
		route.Cleanup = cleanup
	}
	for _, addr := range sr.AddressLookupTableAddresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("lookup table %q: %w", addr, err)
		}
		route.LookupTables = append(route.LookupTables, key)
	}
	return route, nil
}

func (c *Client) fetchQuote(ctx context.Context, inputMint, outputMint solana.PublicKey, amount uint64, slippageBps uint16) (json.RawMessage, uint64, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint.String())
	q.Set("outputMint", outputMint.String())
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.FormatUint(uint64(slippageBps), 10))
	u := c.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, 0, fmt.Errorf("%w: quote status %d", ErrNoRoute, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("quote status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode quote: %w", err)
	}
	var head struct {
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, 0, fmt.Errorf("decode quote head: %w", err)
	}
	out, err := strconv.ParseUint(head.OutAmount, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("parse outAmount %q: %w", head.OutAmount, err)
	}
	return raw, out, nil
}

// SwapTransaction asks Jupiter for a ready-to-sign transaction for the quote
// instead of raw instructions. Used by the one-shot CLI; the engine builds
// its own transactions so it can interleave tax transfers.
func (c *Client) SwapTransaction(ctx context.Context, user, inputMint, outputMint solana.PublicKey, amount uint64, slippageBps uint16) (*solana.Transaction, error) {
	quoteRaw, _, err := c.fetchQuote(ctx, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"userPublicKey":    user.String(),
		"wrapAndUnwrapSol": true,
		"quoteResponse":    quoteRaw,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap status %d", resp.StatusCode)
	}

	var sr struct {
		SwapTransaction string `json:"swapTransaction"` // base64-encoded tx (unsigned)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tx: %w", err)
	}
	return tx, nil
}
