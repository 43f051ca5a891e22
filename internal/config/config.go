package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/journal"
	"github.com/newthinker/vigil/internal/risk"
	"github.com/newthinker/vigil/internal/strategy"
)

type Config struct {
	App      AppConfig        `mapstructure:"app"`
	Scan     ScanConfig       `mapstructure:"scan"`
	Strategy strategy.Config  `mapstructure:"strategy"`
	Risk     risk.SizerConfig `mapstructure:"risk"`
	Journal  JournalConfig    `mapstructure:"journal"`
	Storage  StorageConfig    `mapstructure:"storage"`
	Alpaca   AlpacaConfig     `mapstructure:"alpaca"`
	Notify   NotifyConfig     `mapstructure:"notify"`
	Metrics  MetricsConfig    `mapstructure:"metrics"`
}

type AppConfig struct {
	Debug bool `mapstructure:"debug"`
}

// ScanConfig controls which data source feeds the scan, how much history
// is pulled, and how the fast-mover pre-screen filters the universe.
type ScanConfig struct {
	Source       string   `mapstructure:"source"`
	Universe     []string `mapstructure:"universe"`
	LookbackDays int      `mapstructure:"lookback_days"`
	Timeframe    string   `mapstructure:"timeframe"`
	RSWindow     int      `mapstructure:"rs_window"`
	BaseLookback int      `mapstructure:"base_lookback"`
	MinPrice     float64  `mapstructure:"min_price"`
	MinVolume    float64  `mapstructure:"min_volume"`
	TopN         int      `mapstructure:"top_n"`
}

type JournalConfig struct {
	Key        string `mapstructure:"key"`
	MinSamples int    `mapstructure:"min_samples"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type AlpacaConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type NotifyConfig struct {
	WebhookURL string            `mapstructure:"webhook_url"`
	Headers    map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Credential environment variables the data source requires.
const (
	EnvAPIKey    = "ALPACA_API_KEY"
	EnvAPISecret = "ALPACA_SECRET_KEY"
	EnvBaseURL   = "ALPACA_BASE_URL"
)

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Scan: ScanConfig{
			Source:       "alpaca",
			LookbackDays: 365,
			Timeframe:    "1Day",
			RSWindow:     125,
			BaseLookback: 90,
			MinPrice:     5.0,
			MinVolume:    200000,
			TopN:         25,
		},
		Strategy: strategy.DefaultConfig(),
		Risk:     risk.DefaultSizerConfig(),
		Journal: JournalConfig{
			Key:        "journal.json",
			MinSamples: journal.DefaultMinSamples,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://data.alpaca.markets",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// LoadCredentials resolves Alpaca credentials from the environment, falling
// back to an optional dotenv file. Values already present in the environment
// win over the file.
func LoadCredentials(dotenvPath string) (AlpacaConfig, error) {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return AlpacaConfig{}, core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("loading %s: %w", dotenvPath, err))
			}
		}
	}

	cfg := AlpacaConfig{
		APIKey:    os.Getenv(EnvAPIKey),
		APISecret: os.Getenv(EnvAPISecret),
		BaseURL:   os.Getenv(EnvBaseURL),
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if cfg.APISecret == "" {
		missing = append(missing, EnvAPISecret)
	}
	if cfg.BaseURL == "" {
		missing = append(missing, EnvBaseURL)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return AlpacaConfig{}, core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("missing required Alpaca credentials: %s. Set them in the environment or your .env file",
				strings.Join(missing, ", ")))
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Scan.Source == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("scan source is required"))
	}
	if c.Scan.LookbackDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_days must be positive, got %d", c.Scan.LookbackDays))
	}
	if c.Scan.RSWindow < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rs_window must be positive, got %d", c.Scan.RSWindow))
	}
	if c.Scan.BaseLookback < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("base_lookback must be positive, got %d", c.Scan.BaseLookback))
	}
	if c.Scan.MinPrice < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_price cannot be negative, got %f", c.Scan.MinPrice))
	}
	if c.Scan.MinVolume < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_volume cannot be negative, got %f", c.Scan.MinVolume))
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if c.Journal.MinSamples < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("journal min_samples cannot be negative, got %d", c.Journal.MinSamples))
	}
	if c.Journal.Key == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("journal key is required"))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	return nil
}
