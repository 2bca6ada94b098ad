package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/bot"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/config"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/exchange"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/logger"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/monitoring"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/notifications"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/web"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file path (default: .env)")
	dryRun := flag.Bool("dry-run", false, "Paper trading against an in-memory exchange")
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	fmt.Println("🚀 Hedge Bot Starting...")

	if *dryRun {
		os.Setenv("DRY_RUN", "true")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	botLog, err := logger.NewLogger(cfg.LogDir, "hedge_bot")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer botLog.Close()

	var notifiers []notifications.Notifier
	if cfg.Notifications.Enabled {
		notifiers = append(notifiers, notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID))
	}
	notify := notifications.NewDispatcher(cfg.Notifications.QueueSize, botLog, notifiers...)
	defer notify.Close()

	venue := exchange.NewFromConfig(cfg)
	botLog.Info("Exchange: %s (dry run: %v)", venue.GetName(), cfg.Trading.DryRun)

	hedgeBot, err := bot.New(cfg, venue, botLog, notify)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	startMonitoringServers(cfg, hedgeBot, botLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutdown signal received...")
		cancel()
	}()

	if err := hedgeBot.Run(ctx); err != nil {
		log.Fatalf("Bot stopped with error: %v", err)
	}
	fmt.Println("✅ Bot stopped successfully")
}

// startMonitoringServers serves Prometheus metrics, the health probe and the
// dashboard API on their configured ports. Failures are logged, not fatal;
// the trading loop runs without them.
func startMonitoringServers(cfg *config.Config, hedgeBot *bot.HedgeBot, botLog *logger.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		botLog.Info("Prometheus metrics on %s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			botLog.Warning("metrics server stopped: %v", err)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/health", hedgeBot.Health())
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		botLog.Info("Health probe on %s/health", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			botLog.Warning("health server stopped: %v", err)
		}
	}()

	if cfg.Monitoring.WebEnabled {
		go func() {
			srv := web.NewServer(hedgeBot.Ledger(), hedgeBot.HedgeManager(), hedgeBot.PriceLookup())
			botLog.Info("Dashboard API on :%d", cfg.Monitoring.WebPort)
			if err := srv.ListenAndServe(cfg.Monitoring.WebPort); err != nil {
				botLog.Warning("dashboard server stopped: %v", err)
			}
		}()
	}
}

// loadEnvFile loads environment variables from a file
func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}
