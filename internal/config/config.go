package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/hedge"
	"github.com/ducminhle1904/crypto-hedge-bot/internal/strategy"
)

// Config is the complete runtime configuration, loaded from the environment.
// Secrets come from env only; everything else has a sensible default so the
// bot starts on a testnet with no configuration at all.
type Config struct {
	Environment string
	LogLevel    string
	LogDir      string

	Exchange ExchangeConfig
	Trading  TradingConfig
	Hedge    HedgeConfig
	Strategy strategy.ElliotParams

	Monitoring    MonitoringConfig
	Notifications NotificationConfig
	State         StateConfig
}

// ExchangeConfig holds exchange connectivity and credentials
type ExchangeConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool
}

// TradingConfig holds the trading loop parameters
type TradingConfig struct {
	Symbols        []string
	Interval       string
	CycleInterval  time.Duration
	WindowSize     int
	Leverage       float64
	InitialBalance float64
	MaxPairs       int
	Stoploss       float64
	ROITable       *hedge.ROITable
	DryRun         bool
}

// HedgeConfig holds the hedge state machine parameters
type HedgeConfig struct {
	TriggerLoss      float64
	LongNotional     float64
	ShortNotional    float64
	MinCoverageRatio float64
}

// MonitoringConfig holds metrics, health and dashboard ports
type MonitoringConfig struct {
	PrometheusPort int
	HealthPort     int
	WebPort        int
	WebEnabled     bool
}

// NotificationConfig holds Telegram settings
type NotificationConfig struct {
	Enabled        bool
	TelegramToken  string
	TelegramChatID string
	QueueSize      int
}

// StateConfig holds snapshot persistence settings
type StateConfig struct {
	FilePath     string
	SaveInterval time.Duration
}

// Load reads configuration from the environment and applies defaults
func Load() (*Config, error) {
	roiTable, err := hedge.ParseROITable(getEnv("ROI_TABLE", "0:0.70,1:0.65,2:0.60,5:0.45,10:0.20,15:0.15,30:0.07,60:0.03,120:0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROI_TABLE: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogDir:      getEnv("LOG_DIR", "logs"),

		Exchange: ExchangeConfig{
			APIKey:    getEnv("BYBIT_API_KEY", ""),
			APISecret: getEnv("BYBIT_API_SECRET", ""),
			Testnet:   getEnvBool("BYBIT_TESTNET", true),
			Demo:      getEnvBool("BYBIT_DEMO", false),
		},

		Trading: TradingConfig{
			Symbols:        getEnvList("TRADING_SYMBOLS", []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}),
			Interval:       getEnv("TRADING_INTERVAL", "5"),
			CycleInterval:  getEnvDuration("CYCLE_INTERVAL", 30*time.Second),
			WindowSize:     getEnvInt("WINDOW_SIZE", 250),
			Leverage:       getEnvFloat("LEVERAGE", 10.0),
			InitialBalance: getEnvFloat("INITIAL_BALANCE", 100.0),
			MaxPairs:       getEnvInt("MAX_PAIRS", 5),
			Stoploss:       getEnvFloat("STOPLOSS", -0.189),
			ROITable:       roiTable,
			DryRun:         getEnvBool("DRY_RUN", false),
		},

		Hedge: HedgeConfig{
			TriggerLoss:      getEnvFloat("HEDGE_TRIGGER_LOSS", -0.05),
			LongNotional:     getEnvFloat("LONG_NOTIONAL", 5.0),
			ShortNotional:    getEnvFloat("SHORT_NOTIONAL", 10.0),
			MinCoverageRatio: getEnvFloat("MIN_COVERAGE_RATIO", 1.0),
		},

		Strategy: loadStrategyParams(),

		Monitoring: MonitoringConfig{
			PrometheusPort: getEnvInt("PROMETHEUS_PORT", 8080),
			HealthPort:     getEnvInt("HEALTH_PORT", 8081),
			WebPort:        getEnvInt("WEB_PORT", 5000),
			WebEnabled:     getEnvBool("WEB_ENABLED", true),
		},

		Notifications: NotificationConfig{
			Enabled:        getEnvBool("TELEGRAM_ENABLED", false),
			TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
			QueueSize:      getEnvInt("NOTIFICATION_QUEUE_SIZE", 64),
		},

		State: StateConfig{
			FilePath:     getEnv("STATE_FILE", "data/bot_state.json"),
			SaveInterval: getEnvDuration("STATE_SAVE_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadStrategyParams() strategy.ElliotParams {
	params := strategy.DefaultElliotParams()
	params.BaseNbCandlesBuy = getEnvInt("BASE_NB_CANDLES_BUY", params.BaseNbCandlesBuy)
	params.BaseNbCandlesSell = getEnvInt("BASE_NB_CANDLES_SELL", params.BaseNbCandlesSell)
	params.LowOffset = getEnvFloat("LOW_OFFSET", params.LowOffset)
	params.HighOffset = getEnvFloat("HIGH_OFFSET", params.HighOffset)
	params.EWOHigh = getEnvFloat("EWO_HIGH", params.EWOHigh)
	params.EWOLow = getEnvFloat("EWO_LOW", params.EWOLow)
	params.RSIBuy = getEnvFloat("RSI_BUY", params.RSIBuy)
	params.FastEWO = getEnvInt("FAST_EWO", params.FastEWO)
	params.SlowEWO = getEnvInt("SLOW_EWO", params.SlowEWO)
	params.RSIPeriod = getEnvInt("RSI_PERIOD", params.RSIPeriod)
	return params
}

// Validate checks the configuration for values the bot cannot run with
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("at least one trading symbol is required")
	}
	for _, symbol := range c.Trading.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("empty symbol in TRADING_SYMBOLS")
		}
	}
	if c.Trading.Leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %.2f", c.Trading.Leverage)
	}
	if c.Trading.WindowSize < 10 {
		return fmt.Errorf("window size too small for indicators: %d", c.Trading.WindowSize)
	}
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive")
	}
	if c.Trading.Stoploss >= 0 {
		return fmt.Errorf("stoploss must be negative, got %.4f", c.Trading.Stoploss)
	}
	if c.Trading.ROITable == nil {
		return fmt.Errorf("ROI table is required")
	}

	hedgeCfg := hedge.Config{
		TriggerLoss:      c.Hedge.TriggerLoss,
		LongNotional:     c.Hedge.LongNotional,
		ShortNotional:    c.Hedge.ShortNotional,
		MinCoverageRatio: c.Hedge.MinCoverageRatio,
	}
	if err := hedgeCfg.Validate(); err != nil {
		return err
	}

	if !c.Trading.DryRun && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return fmt.Errorf("BYBIT_API_KEY and BYBIT_API_SECRET are required for live trading")
	}
	if c.Notifications.Enabled && (c.Notifications.TelegramToken == "" || c.Notifications.TelegramChatID == "") {
		return fmt.Errorf("telegram notifications enabled but token or chat id is missing")
	}
	return nil
}

// HedgeManagerConfig converts the hedge section into the manager's config type
func (c *Config) HedgeManagerConfig() hedge.Config {
	return hedge.Config{
		TriggerLoss:      c.Hedge.TriggerLoss,
		LongNotional:     c.Hedge.LongNotional,
		ShortNotional:    c.Hedge.ShortNotional,
		MinCoverageRatio: c.Hedge.MinCoverageRatio,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
