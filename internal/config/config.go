package config

import "github.com/spf13/viper"

// Config holds runtime configuration for an intake session.
// Values are populated from .intake.yaml, INTAKE_* env vars, and CLI flags.
type Config struct {
	DBPath         string `mapstructure:"db_path"`
	PolicyPath     string `mapstructure:"policy_path"`
	AuditPath      string `mapstructure:"audit_path"`
	InboxDir       string `mapstructure:"inbox_dir"`
	RefreshSeconds int    `mapstructure:"refresh_seconds"`
	Verbose        bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("db_path", ".intake/intake.db")
	viper.SetDefault("policy_path", ".intake/policy.toml")
	viper.SetDefault("audit_path", ".intake/audit.jsonl")
	viper.SetDefault("inbox_dir", ".intake/inbox")
	viper.SetDefault("refresh_seconds", 5)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
