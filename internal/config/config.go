// Package config loads runtime settings from flags, the environment, an
// optional YAML file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/transcritic/internal/generation"
	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/orchestrator"
)

const (
	EnvPrefix      = "TRANSCRITIC"
	LegacyKeyEnv   = "MENTORPIECE_API_KEY"
	DefaultAddr    = ":5000"
	DefaultEnvFile = ".env"
)

type Config struct {
	API              generation.Config `mapstructure:",squash"`
	TranslatorModel  string            `mapstructure:"translator_model"`
	JudgeModel       string            `mapstructure:"judge_model"`
	Addr             string            `mapstructure:"addr"`
	DBPath           string            `mapstructure:"db"`
	ValidateLanguage bool              `mapstructure:"validate_language"`
	Log              logger.Config     `mapstructure:"log"`
}

// Options says where to look besides the process environment.
// Empty fields are skipped; EnvFile defaults to .env.
type Options struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

var defaults = map[string]any{
	"api_key":           "",
	"endpoint":          generation.DefaultEndpoint,
	"timeout":           generation.DefaultTimeout,
	"translator_model":  orchestrator.DefaultTranslatorModel,
	"judge_model":       orchestrator.DefaultJudgeModel,
	"addr":              DefaultAddr,
	"db":                "",
	"validate_language": false,
	"log.mod":           string(logger.DevelopmentMod),
	"log.level":         "info",
}

// Load resolves the configuration. Precedence, highest first: flags, env,
// config file, .env file, defaults. A missing API key is not an error.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := applyEnvFile(v, envFile); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", LegacyKeyEnv); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.Endpoint == "" {
		return errors.New("endpoint must not be empty")
	}
	switch c.Log.LogMod {
	case "", logger.DevelopmentMod, logger.ProductionMod:
	default:
		return fmt.Errorf("unknown log mod %q", c.Log.LogMod)
	}
	return nil
}

// HistoryEnabled reports whether runs should be written to a database.
func (c *Config) HistoryEnabled() bool {
	return c.DBPath != ""
}

// FlagName maps a config key to its command-line flag, e.g. log.level -> log-level.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key := range defaults {
		f := flags.Lookup(FlagName(key))
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// applyEnvFile reads KEY=VALUE pairs from path and installs them as defaults,
// so anything set later overrides them. A missing file is ignored.
func applyEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	if dotenv.IsSet(strings.ToLower(LegacyKeyEnv)) {
		v.SetDefault("api_key", dotenv.GetString(strings.ToLower(LegacyKeyEnv)))
	}
	for key := range defaults {
		name := strings.ToLower(envName(key))
		if dotenv.IsSet(name) {
			v.SetDefault(key, dotenv.Get(name))
		}
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
