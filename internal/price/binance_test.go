package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestBinanceCachesLastTrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		msg := `{"stream":"solusdt@trade","data":{"p":"142.5","T":1700000000000}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	src := NewBinance(wsURL, map[solana.PublicKey]string{mint: "SOLUSDT"}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = src.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		px, err := src.Price(ctx, mint)
		if err == nil {
			if px != 142.5 {
				t.Fatalf("expected 142.5, got %f", px)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no price cached before deadline: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBinanceUnmappedMint(t *testing.T) {
	src := NewBinance("", map[solana.PublicKey]string{}, zerolog.Nop())
	if _, err := src.Price(context.Background(), solana.NewWallet().PublicKey()); err == nil {
		t.Fatalf("expected error for unmapped mint")
	}
}
