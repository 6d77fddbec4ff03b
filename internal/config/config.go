package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a synapse session.
// Values are populated from .synapse.yaml, SYNAPSE_* env vars, and CLI flags.
type Config struct {
	LedgerPath string `mapstructure:"ledger_path"`
	TracePath  string `mapstructure:"trace_path"`
	MaxPasses  int    `mapstructure:"max_passes"`
	Quiet      bool   `mapstructure:"quiet"`
	NoColor    bool   `mapstructure:"no_color"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("ledger_path", ".synapse/ledger.db")
	viper.SetDefault("trace_path", "")
	viper.SetDefault("max_passes", 10000)
	viper.SetDefault("quiet", false)
	viper.SetDefault("no_color", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
