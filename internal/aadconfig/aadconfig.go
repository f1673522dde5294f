// Package aadconfig loads the two optional TOML configuration files under
// .aad/: config.toml for orchestrator tuning and style.toml for the
// report/escalation style and token substitution map. Both are layered over
// built-in defaults and tolerate unknown keys.
package aadconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/obs"
	"github.com/aad-go/aad/internal/orchestrator"
	"github.com/aad-go/aad/internal/style"
)

// DefaultContextThreshold is the advisory Session context_usage percentage
// (0..=100) at which a caller should consider the context near exhaustion.
const DefaultContextThreshold = 70

// Config is the parsed shape of .aad/config.toml.
type Config struct {
	MaxParallelSessions  int    `toml:"max_parallel_sessions"`
	SessionTimeoutSecs   int    `toml:"session_timeout_secs"`
	MonitorIntervalSecs  int    `toml:"monitor_interval_secs"`
	MaxRetryAttempts     int    `toml:"max_retry_attempts"`
	RetryDelaySecs       int    `toml:"retry_delay_secs"`
	EscalationDir        string `toml:"escalation_dir"`
	BackupDir            string `toml:"backup_dir"`
	DataDir              string `toml:"data_dir"`
	MaxBackupGenerations int    `toml:"max_backup_generations"`
	ContextThreshold     int    `toml:"context_threshold"`

	TelemetryEnabled    bool    `toml:"telemetry_enabled"`
	TelemetryExporter   string  `toml:"telemetry_exporter"`
	TelemetryEndpoint   string  `toml:"telemetry_endpoint"`
	TelemetrySampleRate float64 `toml:"telemetry_sample_rate"`
}

// Default returns the built-in configuration used when config.toml is
// absent or leaves a field unset.
func Default() Config {
	return Config{
		MaxParallelSessions:  4,
		SessionTimeoutSecs:   3600,
		MonitorIntervalSecs:  1,
		MaxRetryAttempts:     3,
		RetryDelaySecs:       5,
		EscalationDir:        ".aad/escalations",
		BackupDir:            ".aad/backups",
		DataDir:              ".aad/data",
		MaxBackupGenerations: 10,
		ContextThreshold:     DefaultContextThreshold,

		TelemetryEnabled:    false,
		TelemetryExporter:   "otlp-http",
		TelemetrySampleRate: 1.0,
	}
}

// Load reads config.toml from path. A missing file yields Default()
// unchanged; a present file is unmarshaled over the defaults, so any field
// it omits keeps its default value. Unknown keys are ignored.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errs.Wrap(errs.KindRepository, "reading config.toml", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errs.Wrap(errs.KindSerialization, "parsing config.toml", err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.ContextThreshold < 0 || cfg.ContextThreshold > 100 {
		return errs.New(errs.KindValidation, fmt.Sprintf("context_threshold must be 0..=100, got %d", cfg.ContextThreshold))
	}
	return nil
}

// ToOrchestratorConfig projects the persisted tunables onto
// orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxParallelSessions: c.MaxParallelSessions,
		SessionTimeout:      time.Duration(c.SessionTimeoutSecs) * time.Second,
		MonitorInterval:     time.Duration(c.MonitorIntervalSecs) * time.Second,
		MaxRetryAttempts:    c.MaxRetryAttempts,
		RetryDelay:          time.Duration(c.RetryDelaySecs) * time.Second,
	}
}

// ToTelemetryConfig projects the persisted telemetry tunables onto
// obs.TelemetryConfig.
func (c Config) ToTelemetryConfig() obs.TelemetryConfig {
	return obs.TelemetryConfig{
		Enabled:     c.TelemetryEnabled,
		Exporter:    c.TelemetryExporter,
		Endpoint:    c.TelemetryEndpoint,
		ServiceName: "aad",
		SampleRate:  c.TelemetrySampleRate,
	}
}

// StyleConfig is the parsed shape of .aad/style.toml.
type StyleConfig struct {
	Style  styleSection      `toml:"style"`
	Tokens map[string]string `toml:"tokens"`
}

type styleSection struct {
	Name string `toml:"name"`
}

// DefaultStyleConfig names the built-in "default" style with no extra
// tokens.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{Style: styleSection{Name: "default"}}
}

// LoadStyle reads style.toml from path, returning the built-in default if
// the file is absent. Resolves the parsed shape into a validated
// style.StyleName and style.TokenMap.
func LoadStyle(path string) (style.StyleName, *style.TokenMap, error) {
	cfg := DefaultStyleConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return style.StyleName{}, nil, errs.Wrap(errs.KindRepository, "reading style.toml", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return style.StyleName{}, nil, errs.Wrap(errs.KindSerialization, "parsing style.toml", err)
	}

	name, err := style.NewStyleName(cfg.Style.Name)
	if err != nil {
		return style.StyleName{}, nil, err
	}

	tokens := style.NewTokenMap()
	for k, v := range cfg.Tokens {
		tokens.Insert(k, v)
	}
	return name, tokens, nil
}
