package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sasiyaluba/Jup-limit-order/internal/api"
	"github.com/sasiyaluba/Jup-limit-order/internal/config"
	"github.com/sasiyaluba/Jup-limit-order/internal/engine"
	"github.com/sasiyaluba/Jup-limit-order/internal/ledger"
	"github.com/sasiyaluba/Jup-limit-order/internal/metrics"
	"github.com/sasiyaluba/Jup-limit-order/internal/price"
	"github.com/sasiyaluba/Jup-limit-order/internal/relay"
	"github.com/sasiyaluba/Jup-limit-order/internal/route"
	"github.com/sasiyaluba/Jup-limit-order/internal/util"
	"github.com/sasiyaluba/Jup-limit-order/internal/wallet"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the yaml config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	taxAccount, err := solana.PublicKeyFromBase58(cfg.Tax.Account)
	if err != nil {
		log.Fatal().Err(err).Str("account", cfg.Tax.Account).Msg("parse tax account")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	chain := ledger.New(cfg.Solana.RpcURL, cfg.Solana.Commitment)
	jito := relay.New(cfg.Jito.BaseURL)
	routes := route.New(cfg.Jupiter.QuoteBase)

	if err := jito.RefreshTipAccounts(ctx); err != nil {
		log.Warn().Err(err).Msg("tip account refresh failed, using defaults")
	}
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := jito.RefreshTipAccounts(ctx); err != nil {
					log.Warn().Err(err).Msg("tip account refresh failed")
				}
			}
		}
	}()

	prices := buildPriceSource(ctx, cfg, log)

	book, err := engine.NewBook(engine.Params{
		Prices:       prices,
		Routes:       routes,
		Ledger:       chain,
		Relay:        jito,
		Keys:         wallet.NewEnvResolver(),
		TaxAccount:   taxAccount,
		TaxBps:       cfg.Tax.Bps,
		PollInterval: time.Duration(cfg.Price.PollIntervalMs) * time.Millisecond,
		Epsilon:      cfg.Price.Epsilon,
		Log:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build order book")
	}
	defer book.Close()

	server := api.NewServer(book, log)
	go func() {
		if err := server.Start(cfg.App.ListenAddr); err != nil {
			log.Error().Err(err).Msg("api server stopped")
			cancel()
		}
	}()

	log.Info().Str("env", cfg.App.Env).Msg("limit order engine started")
	<-ctx.Done()
	log.Info().Msg("shutting down")
}

// buildPriceSource picks the oracle per config. Binance streams in the
// background; Jupiter is polled on demand by each watcher.
func buildPriceSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) price.Source {
	if cfg.Price.Provider == "binance" {
		symbols := make(map[solana.PublicKey]string, len(cfg.Price.Symbols))
		for mint, symbol := range cfg.Price.Symbols {
			key, err := solana.PublicKeyFromBase58(mint)
			if err != nil {
				log.Fatal().Err(err).Str("mint", mint).Msg("parse symbol mint")
			}
			symbols[key] = symbol
		}
		binance := price.NewBinance(price.DefaultBinanceURL, symbols, log)
		go func() {
			if err := binance.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("binance stream stopped")
			}
		}()
		return binance
	}
	return price.NewJupiter(cfg.Jupiter.PriceBase)
}
