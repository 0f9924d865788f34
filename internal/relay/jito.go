// Package relay submits transaction bundles to a Jito block engine and
// manages the tip-account pool.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrSubmit reports a bundle the relay refused or failed to accept.
var ErrSubmit = errors.New("bundle submission failed")

// Tip accounts operated by the Jito block engine. Tips are load-balanced
// across the pool by picking one at random per bundle.
var defaultTipAccounts = []string{
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
}

// Client speaks the block engine's JSON-RPC bundle API.
type Client struct {
	Base string
	Http *http.Client

	mu   sync.RWMutex
	tips []solana.PublicKey
}

func New(base string) *Client {
	tips := make([]solana.PublicKey, 0, len(defaultTipAccounts))
	for _, acc := range defaultTipAccounts {
		tips = append(tips, solana.MustPublicKeyFromBase58(acc))
	}
	return &Client{
		Base: base,
		Http: &http.Client{Timeout: 10 * time.Second},
		tips: tips,
	}
}

// TipAccount returns one tip-collection account chosen at random from the pool.
func (c *Client) TipAccount() solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tips[rand.Intn(len(c.tips))]
}

// RefreshTipAccounts replaces the pool with the accounts currently advertised
// by the block engine. The built-in pool is kept on any failure.
func (c *Client) RefreshTipAccounts(ctx context.Context) error {
	var accounts []string
	if err := c.call(ctx, "getTipAccounts", []any{}, &accounts); err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("relay returned no tip accounts")
	}
	tips := make([]solana.PublicKey, 0, len(accounts))
	for _, acc := range accounts {
		key, err := solana.PublicKeyFromBase58(acc)
		if err != nil {
			return fmt.Errorf("tip account %q: %w", acc, err)
		}
		tips = append(tips, key)
	}
	c.mu.Lock()
	c.tips = tips
	c.mu.Unlock()
	return nil
}

// SubmitBundle sends the transactions as one ordered bundle and returns the
// bundle id assigned by the relay.
func (c *Client) SubmitBundle(ctx context.Context, txs []*solana.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", fmt.Errorf("%w: empty bundle", ErrSubmit)
	}
	encoded := make([]string, 0, len(txs))
	for _, tx := range txs {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return "", fmt.Errorf("%w: marshal transaction: %s", ErrSubmit, err)
		}
		encoded = append(encoded, base58.Encode(raw))
	}

	var bundleID string
	if err := c.call(ctx, "sendBundle", []any{encoded}, &bundleID); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSubmit, err)
	}
	if bundleID == "" {
		return "", fmt.Errorf("%w: relay returned no bundle id", ErrSubmit)
	}
	return bundleID, nil
}

type bundleStatusesResult struct {
	Value []struct {
		BundleID           string `json:"bundle_id"`
		ConfirmationStatus string `json:"confirmation_status"`
		Err                any    `json:"err"`
	} `json:"value"`
}

// BundleStatus polls the relay once for the bundle's confirmation status.
// Unknown bundles report "unknown".
func (c *Client) BundleStatus(ctx context.Context, bundleID string) (string, error) {
	var result bundleStatusesResult
	if err := c.call(ctx, "getBundleStatuses", []any{[]string{bundleID}}, &result); err != nil {
		return "", err
	}
	if len(result.Value) == 0 {
		return "unknown", nil
	}
	entry := result.Value[0]
	if bundleFailed(entry.Err) {
		return "failed", nil
	}
	if entry.ConfirmationStatus == "" {
		return "unknown", nil
	}
	return entry.ConfirmationStatus, nil
}

// The relay reports per-bundle errors as {"Ok": null} on success and a
// variant object otherwise.
func bundleFailed(errField any) bool {
	raw, ok := errField.(map[string]any)
	if !ok {
		return errField != nil
	}
	val, present := raw["Ok"]
	return !present || val != nil
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/api/v1/bundles", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay status %d", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("relay error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
