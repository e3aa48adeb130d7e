// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `amarilog:` root key in YAML.
type GlobalConfig struct {
	Log      LogConfig      `mapstructure:"log"`
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Sinks    SinksConfig    `mapstructure:"sinks"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Progress ProgressConfig `mapstructure:"progress"`
	Summary  SummaryConfig  `mapstructure:"summary"`
}

// ─── Input / Output ───

// InputConfig locates and bounds the log being read.
type InputConfig struct {
	LogFile      string `mapstructure:"log_file"`
	MaxLineBytes int    `mapstructure:"max_line_bytes"`
}

// OutputConfig controls where and how records are written.
type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	Sink          string `mapstructure:"sink"`    // csv | ndjson | clickhouse | nats
	Inspect       bool   `mapstructure:"inspect"` // add gopacket header columns
	PlaceholderID string `mapstructure:"placeholder_id"`
}

// ─── Sinks ───

// SinksConfig holds per-sink settings. Only the selected sink's section is used.
type SinksConfig struct {
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	NATS       NATSConfig       `mapstructure:"nats"`
}

// ClickHouseConfig configures the clickhouse sink.
type ClickHouseConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Table     string `mapstructure:"table"`
	BatchSize int    `mapstructure:"batch_size"`
}

// NATSConfig configures the nats sink.
type NATSConfig struct {
	URL      string `mapstructure:"url"`
	Subject  string `mapstructure:"subject"`  // the experiment id is appended as a token
	Encoding string `mapstructure:"encoding"` // json | protobuf
}

// ─── Metrics / Progress ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // written at the end of a run, empty = off
	Listen   string `mapstructure:"listen"`   // scrape endpoint during a run, empty = off
	Path     string `mapstructure:"path"`
}

// ProgressConfig controls progress logging.
type ProgressConfig struct {
	EveryRecords int `mapstructure:"every_records"` // 0 = off
}

// SummaryConfig holds throughput summary parameters.
type SummaryConfig struct {
	PacketSize int    `mapstructure:"packet_size"` // bytes per datagram
	PortMin    int    `mapstructure:"port_min"`
	PortMax    int    `mapstructure:"port_max"`
	Charts     bool   `mapstructure:"charts"`
	ChartsDir  string `mapstructure:"charts_dir"` // empty = next to the CSV
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `amarilog: ...`.
type configRoot struct {
	Amarilog GlobalConfig `mapstructure:"amarilog"`
}

// Load loads configuration from file. An empty path yields defaults plus
// environment overrides. Env vars follow the key path, e.g.
// "amarilog.log.level" -> AMARILOG_LOG_LEVEL.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %w", core.ErrConfigInvalid, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", core.ErrConfigInvalid, err)
	}
	cfg := root.Amarilog

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfigInvalid, err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no env.
func Default() *GlobalConfig {
	v := viper.New()
	setDefaults(v)
	var root configRoot
	_ = v.Unmarshal(&root)
	cfg := root.Amarilog
	_ = cfg.ValidateAndApplyDefaults()
	return &cfg
}

// setDefaults sets default values for configuration.
// All keys use "amarilog." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("amarilog.log.level", "info")
	v.SetDefault("amarilog.log.format", "text")
	v.SetDefault("amarilog.log.outputs.file.enabled", false)
	v.SetDefault("amarilog.log.outputs.file.path", "amarilog.log")
	v.SetDefault("amarilog.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("amarilog.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("amarilog.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("amarilog.log.outputs.file.rotation.compress", true)

	// Input / output defaults
	v.SetDefault("amarilog.input.log_file", "/tmp/ue0.log")
	v.SetDefault("amarilog.input.max_line_bytes", 1<<20)
	v.SetDefault("amarilog.output.dir", ".")
	v.SetDefault("amarilog.output.sink", "csv")
	v.SetDefault("amarilog.output.inspect", false)
	v.SetDefault("amarilog.output.placeholder_id", "id_value_missing")

	// Sink defaults
	v.SetDefault("amarilog.sinks.clickhouse.host", "localhost")
	v.SetDefault("amarilog.sinks.clickhouse.port", 9000)
	v.SetDefault("amarilog.sinks.clickhouse.database", "default")
	v.SetDefault("amarilog.sinks.clickhouse.username", "default")
	v.SetDefault("amarilog.sinks.clickhouse.password", "")
	v.SetDefault("amarilog.sinks.clickhouse.table", "ue_packets")
	v.SetDefault("amarilog.sinks.clickhouse.batch_size", 10000)
	v.SetDefault("amarilog.sinks.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("amarilog.sinks.nats.subject", "amarilog.records")
	v.SetDefault("amarilog.sinks.nats.encoding", "json")

	// Metrics / progress defaults
	v.SetDefault("amarilog.metrics.textfile", "")
	v.SetDefault("amarilog.metrics.listen", "")
	v.SetDefault("amarilog.metrics.path", "/metrics")
	v.SetDefault("amarilog.progress.every_records", 0)

	// Summary defaults
	v.SetDefault("amarilog.summary.packet_size", 1470)
	v.SetDefault("amarilog.summary.port_min", 5200)
	v.SetDefault("amarilog.summary.port_max", 5299)
	v.SetDefault("amarilog.summary.charts", true)
	v.SetDefault("amarilog.summary.charts_dir", "")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}

	// ── Input / output ──
	if cfg.Input.MaxLineBytes < 0 {
		return fmt.Errorf("input.max_line_bytes must not be negative: %d", cfg.Input.MaxLineBytes)
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.Sink == "" {
		cfg.Output.Sink = "csv"
	}
	cfg.Output.Sink = strings.ToLower(cfg.Output.Sink)
	if cfg.Output.PlaceholderID == "" {
		cfg.Output.PlaceholderID = "id_value_missing"
	}

	// ── Sinks ──
	switch cfg.Sinks.NATS.Encoding {
	case "":
		cfg.Sinks.NATS.Encoding = "json"
	case "json", "protobuf":
	default:
		return fmt.Errorf("invalid sinks.nats.encoding: %s (must be json/protobuf)", cfg.Sinks.NATS.Encoding)
	}
	if cfg.Sinks.ClickHouse.BatchSize <= 0 {
		cfg.Sinks.ClickHouse.BatchSize = 10000
	}

	// ── Progress / summary ──
	if cfg.Progress.EveryRecords < 0 {
		return fmt.Errorf("progress.every_records must not be negative: %d", cfg.Progress.EveryRecords)
	}
	if cfg.Summary.PacketSize <= 0 {
		return fmt.Errorf("summary.packet_size must be positive: %d", cfg.Summary.PacketSize)
	}
	if cfg.Summary.PortMin > cfg.Summary.PortMax {
		return fmt.Errorf("summary.port_min %d is above port_max %d", cfg.Summary.PortMin, cfg.Summary.PortMax)
	}

	return nil
}
