package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

func TestTipAccountFromPool(t *testing.T) {
	client := New("https://relay")
	pool := make(map[string]struct{}, len(defaultTipAccounts))
	for _, acc := range defaultTipAccounts {
		pool[acc] = struct{}{}
	}
	for i := 0; i < 32; i++ {
		if _, ok := pool[client.TipAccount().String()]; !ok {
			t.Fatalf("tip account outside pool")
		}
	}
}

func TestSubmitBundle(t *testing.T) {
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
				{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
			}, []byte{0}),
		},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bundles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "sendBundle" {
			t.Errorf("unexpected method %s", req.Method)
		}
		txs, ok := req.Params[0].([]any)
		if !ok || len(txs) != 1 {
			t.Errorf("expected one encoded transaction, got %+v", req.Params)
		} else if _, err := base58.Decode(txs[0].(string)); err != nil {
			t.Errorf("transaction not base58: %v", err)
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"bundle-123"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	client.Http = server.Client()

	id, err := client.SubmitBundle(context.Background(), []*solana.Transaction{tx})
	if err != nil {
		t.Fatalf("SubmitBundle returned error: %v", err)
	}
	if id != "bundle-123" {
		t.Fatalf("expected bundle-123, got %s", id)
	}
}

func TestBundleStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[{"bundle_id":"b1","confirmation_status":"confirmed","err":{"Ok":null}}]}}`)
	}))
	defer server.Close()

	client := New(server.URL)
	client.Http = server.Client()

	status, err := client.BundleStatus(context.Background(), "b1")
	if err != nil {
		t.Fatalf("BundleStatus returned error: %v", err)
	}
	if status != "confirmed" {
		t.Fatalf("expected confirmed, got %s", status)
	}
}

func TestBundleStatusUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[]}}`)
	}))
	defer server.Close()

	client := New(server.URL)
	client.Http = server.Client()

	status, err := client.BundleStatus(context.Background(), "missing")
	if err != nil {
		t.Fatalf("BundleStatus returned error: %v", err)
	}
	if status != "unknown" {
		t.Fatalf("expected unknown, got %s", status)
	}
}

func TestRefreshTipAccounts(t *testing.T) {
	fresh := solana.NewWallet().PublicKey()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":["%s"]}`, fresh)
	}))
	defer server.Close()

	client := New(server.URL)
	client.Http = server.Client()

	if err := client.RefreshTipAccounts(context.Background()); err != nil {
		t.Fatalf("RefreshTipAccounts returned error: %v", err)
	}
	if !client.TipAccount().Equals(fresh) {
		t.Fatalf("pool not replaced")
	}
}

func TestSubmitBundleRelayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"rate limited"}}`)
	}))
	defer server.Close()

	client := New(server.URL)
	client.Http = server.Client()

	payer := solana.NewWallet()
	tx, _ := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
				{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
			}, []byte{0}),
		},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	if _, err := client.SubmitBundle(context.Background(), []*solana.Transaction{tx}); err == nil {
		t.Fatalf("expected error from relay")
	}
}
