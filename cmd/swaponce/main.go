// Binary swaponce performs a single Jupiter swap from the command line. It is
// a smoke-test tool for RPC and aggregator connectivity, independent of the
// order engine.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"

	"github.com/sasiyaluba/Jup-limit-order/internal/config"
	"github.com/sasiyaluba/Jup-limit-order/internal/ledger"
	"github.com/sasiyaluba/Jup-limit-order/internal/route"
	"github.com/sasiyaluba/Jup-limit-order/internal/wallet"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the yaml config")
	owner := flag.String("owner", "default", "wallet handle to sign with")
	inputMint := flag.String("in", solana.SolMint.String(), "input mint")
	outputMint := flag.String("out", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "output mint")
	amount := flag.Uint64("amount", 10_000_000, "input amount in base units")
	slippage := flag.Uint("slippage-bps", 150, "slippage tolerance in bps")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	key, err := wallet.NewEnvResolver().Resolve(*owner)
	if err != nil {
		log.Fatalf("wallet: %v", err)
	}

	in, err := solana.PublicKeyFromBase58(*inputMint)
	if err != nil {
		log.Fatalf("input mint: %v", err)
	}
	out, err := solana.PublicKeyFromBase58(*outputMint)
	if err != nil {
		log.Fatalf("output mint: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	routes := route.New(getEnv("JUPITER_BASE_URL", cfg.Jupiter.QuoteBase))
	tx, err := routes.SwapTransaction(ctx, key.PublicKey(), in, out, *amount, uint16(*slippage))
	if err != nil {
		log.Fatalf("swap transaction: %v", err)
	}

	chain := ledger.New(getEnv("SOLANA_RPC_URL", cfg.Solana.RpcURL), cfg.Solana.Commitment)
	hash, err := chain.LatestBlockhash(ctx)
	if err != nil {
		log.Fatalf("blockhash: %v", err)
	}
	tx.Message.RecentBlockhash = hash
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		log.Fatalf("sign: %v", err)
	}

	sig, err := chain.BroadcastAndConfirm(ctx, tx)
	if err != nil {
		log.Fatalf("broadcast: %v", err)
	}
	log.Printf("confirmed tx: %s", sig.String())
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
