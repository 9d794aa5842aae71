package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Symbols, 3)
	assert.True(t, cfg.Symbols["BTCUSDT"].RangeRetest)
	assert.False(t, cfg.Symbols["ETHUSDT"].RangeRetest)
	assert.Equal(t, 10000.0, cfg.Account.StartingBalance)
	assert.Equal(t, 0.01, cfg.Risk.PerTrade)
	assert.Equal(t, 0.001, cfg.Market.Spread)
	assert.Equal(t, 300, cfg.Market.HistoryLimit)
	assert.Equal(t, time.Hour, cfg.Confirm.VetoTTL)
	assert.Equal(t, "info", cfg.Logging.Level)

	sched, err := cfg.VWAPSchedule()
	require.NoError(t, err)
	require.NotNil(t, sched)
	next := sched.Next(time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC))
	assert.True(t, next.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)), "next reset %v", next)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
symbols:
  XAUUSD:
    enabled: true
    mean_reversion: true
    value_per_point: 10
    min_lot: 0.01
    max_lot: 2
    lot_step: 0.01
account:
  starting_balance: 5000
  mark_to_market: true
market:
  vwap_reset: never
confirm:
  veto_ttl: 30m
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Symbols, 1)
	s := cfg.SymbolSettings()["XAUUSD"]
	assert.True(t, s.Enabled)
	assert.True(t, s.MeanReversion)
	assert.Equal(t, 10.0, s.Lots.ValuePerPoint)
	assert.Equal(t, 5000.0, cfg.Account.StartingBalance)
	assert.True(t, cfg.Account.MarkToMarket)
	assert.Equal(t, 30*time.Minute, cfg.Confirm.VetoTTL)

	sched, err := cfg.VWAPSchedule()
	require.NoError(t, err)
	assert.Nil(t, sched)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STARTING_BALANCE", "2500")
	t.Setenv("RISK_PER_TRADE", "0.02")
	t.Setenv("MARK_TO_MARKET", "true")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(writeConfig(t, "account:\n  starting_balance: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cfg.Account.StartingBalance)
	assert.Equal(t, 0.02, cfg.Risk.PerTrade)
	assert.True(t, cfg.Account.MarkToMarket)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("RISK_PER_TRADE", "lots")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"risk too high", func(c *Config) { c.Risk.PerTrade = 0.5 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"max below min", func(c *Config) {
			s := c.Symbols["BTCUSDT"]
			s.MaxLot = 0.0001
			c.Symbols["BTCUSDT"] = s
		}},
		{"zero step", func(c *Config) {
			s := c.Symbols["SOLUSDT"]
			s.LotStep = 0
			c.Symbols["SOLUSDT"] = s
		}},
		{"bad vwap cron", func(c *Config) { c.Market.VWAPReset = "every day" }},
		{"bad job cron", func(c *Config) { c.Schedule.ExportCron = "* * *" }},
		{"short history", func(c *Config) { c.Market.HistoryLimit = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
