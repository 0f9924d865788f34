package price

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// DefaultBinanceURL is the combined-stream endpoint for public trade data.
const DefaultBinanceURL = "wss://stream.binance.com:9443/stream"

type binanceEnvelope struct {
	Stream string       `json:"stream"`
	Data   binanceTrade `json:"data"`
}

type binanceTrade struct {
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// Binance keeps a websocket trade stream open for a set of symbols and
// serves the last observed trade price per mint. Run must be started before
// Price returns anything.
type Binance struct {
	url     string
	symbols map[solana.PublicKey]string // mint -> stream symbol, e.g. SOLUSDT
	log     zerolog.Logger

	mu   sync.RWMutex
	last map[string]float64 // lowercased symbol -> price
}

func NewBinance(url string, symbols map[solana.PublicKey]string, log zerolog.Logger) *Binance {
	if url == "" {
		url = DefaultBinanceURL
	}
	return &Binance{
		url:     url,
		symbols: symbols,
		log:     log,
		last:    make(map[string]float64),
	}
}

func (b *Binance) Price(_ context.Context, mint solana.PublicKey) (float64, error) {
	sym, ok := b.symbols[mint]
	if !ok {
		return 0, fmt.Errorf("no stream symbol mapped for mint %s", mint)
	}
	b.mu.RLock()
	px, seen := b.last[strings.ToLower(sym)]
	b.mu.RUnlock()
	if !seen {
		return 0, fmt.Errorf("no trade seen yet for %s", sym)
	}
	return px, nil
}

// Run consumes the trade stream until the context is canceled, reconnecting
// with exponential backoff on transport errors.
func (b *Binance) Run(ctx context.Context) error {
	if len(b.symbols) == 0 {
		return fmt.Errorf("binance source requires at least one symbol")
	}

	streams := make([]string, 0, len(b.symbols))
	for _, sym := range b.symbols {
		streams = append(streams, strings.ToLower(sym)+"@trade")
	}
	url := fmt.Sprintf("%s?streams=%s", b.url, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.consume(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Warn().Err(err).Msg("binance stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (b *Binance) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	b.log.Info().Str("provider", ProviderBinance).Msg("connected price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env binanceEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			b.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		sym := parseStreamSymbol(env.Stream)
		px, err := strconv.ParseFloat(env.Data.Price, 64)
		if err != nil {
			b.log.Warn().Err(err).Msg("invalid price from binance")
			continue
		}
		b.mu.Lock()
		b.last[sym] = px
		b.mu.Unlock()
	}
}

func parseStreamSymbol(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToLower(stream)
	}
	return strings.ToLower(parts[0])
}
