package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"WeekendTrader/internal/calculator"
	"WeekendTrader/internal/risk"
	"WeekendTrader/internal/strategy"
)

// NeverReset disables the VWAP session reset.
const NeverReset = "never"

// SymbolConfig is one row of the symbol table.
type SymbolConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MeanReversion bool    `yaml:"mean_reversion"`
	RangeRetest   bool    `yaml:"range_retest"`
	ValuePerPoint float64 `yaml:"value_per_point" validate:"gt=0"`
	MinLot        float64 `yaml:"min_lot" validate:"gt=0"`
	MaxLot        float64 `yaml:"max_lot" validate:"gtefield=MinLot"`
	LotStep       float64 `yaml:"lot_step" validate:"gt=0"`
}

// Settings converts the row into what the strategy evaluator reads.
func (s SymbolConfig) Settings() strategy.SymbolSettings {
	return strategy.SymbolSettings{
		Enabled:       s.Enabled,
		MeanReversion: s.MeanReversion,
		RangeRetest:   s.RangeRetest,
		Lots: risk.Lots{
			ValuePerPoint: s.ValuePerPoint,
			MinLot:        s.MinLot,
			MaxLot:        s.MaxLot,
			LotStep:       s.LotStep,
		},
	}
}

// DefaultSymbols is the symbol table used when the config file has none.
func DefaultSymbols() map[string]SymbolConfig {
	return map[string]SymbolConfig{
		"BTCUSDT": {Enabled: true, MeanReversion: true, RangeRetest: true, ValuePerPoint: 1, MinLot: 0.001, MaxLot: 1, LotStep: 0.001},
		"ETHUSDT": {Enabled: true, MeanReversion: true, ValuePerPoint: 0.5, MinLot: 0.01, MaxLot: 5, LotStep: 0.01},
		"SOLUSDT": {Enabled: true, MeanReversion: true, ValuePerPoint: 0.1, MinLot: 0.1, MaxLot: 50, LotStep: 0.1},
	}
}

// Config holds all application configuration.
type Config struct {
	Symbols map[string]SymbolConfig `yaml:"symbols" validate:"required,min=1,dive"`
	Account struct {
		StartingBalance float64 `yaml:"starting_balance" validate:"gt=0"`
		MarkToMarket    bool    `yaml:"mark_to_market"`
		StateFile       string  `yaml:"state_file"`
	} `yaml:"account"`
	Risk struct {
		PerTrade float64 `yaml:"per_trade" validate:"gt=0,lte=0.1"`
	} `yaml:"risk"`
	Market struct {
		Spread       float64 `yaml:"spread" validate:"gte=0,lt=0.05"`
		VWAPReset    string  `yaml:"vwap_reset"`
		HistoryLimit int     `yaml:"history_limit" validate:"gte=60"`
		Speedup      int     `yaml:"speedup" validate:"gte=1"`
	} `yaml:"market"`
	Confirm struct {
		VetoTTL       time.Duration `yaml:"veto_ttl" validate:"gte=0"`
		MinConfidence float64       `yaml:"min_confidence" validate:"gte=0,lte=100"`
	} `yaml:"confirm"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
		ExportCron   string `yaml:"export_cron"`
		SummaryCron  string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
	Logging struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"logging"`
}

// Load reads .env, then the YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	floatVar := func(name string, dst *float64) error {
		v := os.Getenv(name)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = f
		return nil
	}

	if err := floatVar("STARTING_BALANCE", &c.Account.StartingBalance); err != nil {
		return err
	}
	if err := floatVar("RISK_PER_TRADE", &c.Risk.PerTrade); err != nil {
		return err
	}
	if err := floatVar("SPREAD", &c.Market.Spread); err != nil {
		return err
	}
	if v := os.Getenv("MARK_TO_MARKET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env MARK_TO_MARKET: %w", err)
		}
		c.Account.MarkToMarket = b
	}
	if v := os.Getenv("VWAP_RESET"); v != "" {
		c.Market.VWAPReset = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		c.Account.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("WEB_ADDR"); v != "" {
		c.Web.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = DefaultSymbols()
	}
	if c.Account.StartingBalance == 0 {
		c.Account.StartingBalance = 10000
	}
	if c.Account.StateFile == "" {
		c.Account.StateFile = "data/state.json"
	}
	if c.Risk.PerTrade == 0 {
		c.Risk.PerTrade = risk.DefaultRiskPerTrade
	}
	if c.Market.Spread == 0 {
		c.Market.Spread = 0.001
	}
	if c.Market.VWAPReset == "" {
		c.Market.VWAPReset = "0 0 * * *"
	}
	if c.Market.HistoryLimit == 0 {
		c.Market.HistoryLimit = 300
	}
	if c.Market.Speedup == 0 {
		c.Market.Speedup = 20
	}
	if c.Confirm.VetoTTL == 0 {
		c.Confirm.VetoTTL = time.Hour
	}
	if c.Confirm.MinConfidence == 0 {
		c.Confirm.MinConfidence = 85
	}
	if c.Schedule.SnapshotCron == "" {
		c.Schedule.SnapshotCron = "0 */15 * * * *"
	}
	if c.Schedule.ExportCron == "" {
		c.Schedule.ExportCron = "*/30 * * * * *"
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 0 * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/weekend_trader.db"
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// VWAPSchedule returns the parsed VWAP session reset, nil for NeverReset.
func (c *Config) VWAPSchedule() (cron.Schedule, error) {
	if c.Market.VWAPReset == NeverReset {
		return nil, nil
	}
	return calculator.ParseSessionSchedule(c.Market.VWAPReset)
}

// SymbolSettings returns the evaluator view of the symbol table.
func (c *Config) SymbolSettings() map[string]strategy.SymbolSettings {
	out := make(map[string]strategy.SymbolSettings, len(c.Symbols))
	for sym, s := range c.Symbols {
		out[sym] = s.Settings()
	}
	return out
}

var jobParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field constraints and cron specs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.VWAPSchedule(); err != nil {
		return err
	}
	for name, spec := range map[string]string{
		"schedule.snapshot_cron": c.Schedule.SnapshotCron,
		"schedule.export_cron":   c.Schedule.ExportCron,
		"schedule.summary_cron":  c.Schedule.SummaryCron,
	} {
		if _, err := jobParser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}
	return nil
}
