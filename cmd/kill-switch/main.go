package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/config"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/state"
)

// The kill switch is the manual remedy for a pair that never recovers: it
// flattens every open position reduce-only at market and retires the pairs
// in the state snapshot, so a restarted bot begins clean.
func main() {
	var (
		envFile = flag.String("env", ".env", "Environment file path (default: .env)")
		confirm = flag.Bool("yes", false, "Actually place the closing orders (without it, dry run only)")
	)
	flag.Parse()

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			log.Printf("Warning: could not load %s: %v", *envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store := state.NewStore(cfg.State.FilePath)
	saved, err := store.Load()
	if err != nil {
		log.Fatalf("Failed to load state snapshot: %v", err)
	}

	venue := exchange.NewFromConfig(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	positions, err := venue.GetPositions(ctx, "")
	if err != nil {
		log.Fatalf("Failed to fetch positions: %v", err)
	}
	if len(positions) == 0 {
		fmt.Println("No open positions on the exchange.")
	}

	for _, pos := range positions {
		fmt.Printf("%-12s %-5s size %.6f entry $%.4f uPnL $%.2f\n",
			pos.Symbol, pos.Side, pos.Size, pos.EntryPrice, pos.UnrealizedPnL)
		if !*confirm {
			continue
		}
		_, err := venue.PlaceMarketOrder(ctx, exchange.OrderRequest{
			Symbol:     pos.Symbol,
			Side:       pos.Side.Opposite(),
			Quantity:   pos.Size,
			ReduceOnly: true,
		})
		if err != nil {
			log.Fatalf("Failed to close %s %s: %v", pos.Symbol, pos.Side, err)
		}
		fmt.Printf("  closed %s %s at market\n", pos.Symbol, pos.Side)
	}

	if !*confirm {
		fmt.Println("\nDry run only. Re-run with -yes to place the closing orders.")
		return
	}

	if saved != nil {
		retireSnapshot(ctx, venue, saved)
		if err := store.Save(saved); err != nil {
			log.Fatalf("Failed to save state snapshot: %v", err)
		}
		fmt.Printf("State snapshot updated: %s\n", store.Path())
	}
	fmt.Println("✅ All positions flattened.")
}

// retireSnapshot closes every open trade in the snapshot at the current mark
// and moves its pairs to CLOSED
func retireSnapshot(ctx context.Context, venue exchange.Exchange, saved *state.BotState) {
	now := time.Now()
	for _, trade := range saved.Trades {
		if !trade.IsOpen() {
			continue
		}
		price, err := venue.GetLatestPrice(ctx, trade.Symbol)
		if err != nil {
			price = trade.EntryPrice
		}
		if err := trade.Close(price, now, "kill switch"); err != nil {
			log.Printf("Warning: could not retire trade %s: %v", trade.ID, err)
		}
	}
	for _, pair := range saved.Pairs {
		if pair.IsActive() {
			pair.Status = hedge.StatusClosed
			pair.ClosedAt = &now
		}
	}
	saved.LastUpdated = now
}
