package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TASKWALLET"

type Config struct {
	API      APIConfig          `mapstructure:"api"`
	Logger   LoggerConfig       `mapstructure:"logger"`
	Database DatabaseConfig     `mapstructure:"database"`
	Source   SourceConfig       `mapstructure:"source"`
	Cache    CacheConfig        `mapstructure:"cache"`
	Auth     AuthConfig         `mapstructure:"auth"`
	Rewards  map[string]float64 `mapstructure:"rewards"`

	v    *viper.Viper
	path string
}

type APIConfig struct {
	Port int `mapstructure:"port"`
}

type LoggerConfig struct {
	Env string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SourceConfig is the remote task source surface: endpoint, credentials, the
// category to project-id table and per-operation timeout/retry policy. All of
// it is editable at runtime from the settings endpoint and persisted.
type SourceConfig struct {
	BaseURL         string         `mapstructure:"base_url"`
	APIToken        string         `mapstructure:"api_token"`
	ProjectIDs      map[string]int `mapstructure:"project_ids"`
	RequestTimeout  time.Duration  `mapstructure:"request_timeout"`
	SubmitTimeout   time.Duration  `mapstructure:"submit_timeout"`
	ProbeTimeout    time.Duration  `mapstructure:"probe_timeout"`
	MaxAttempts     int            `mapstructure:"max_attempts"`
	RetryBackoff    time.Duration  `mapstructure:"retry_backoff"`
	AlwaysRefresh   []string       `mapstructure:"always_refresh"`
	OfflineFallback bool           `mapstructure:"offline_fallback"`
}

type CacheConfig struct {
	Dir string        `mapstructure:"dir"`
	TTL time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{v: v, path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save writes the current configuration back to the config file so runtime
// edits survive restarts.
func (c *Config) Save() error {
	if c.v == nil {
		return errors.New("config was not loaded through Load")
	}

	c.v.Set("source.base_url", c.Source.BaseURL)
	c.v.Set("source.api_token", c.Source.APIToken)
	c.v.Set("source.project_ids", c.Source.ProjectIDs)
	c.v.Set("source.request_timeout", c.Source.RequestTimeout.String())
	c.v.Set("source.submit_timeout", c.Source.SubmitTimeout.String())
	c.v.Set("source.probe_timeout", c.Source.ProbeTimeout.String())
	c.v.Set("source.max_attempts", c.Source.MaxAttempts)
	c.v.Set("source.retry_backoff", c.Source.RetryBackoff.String())
	c.v.Set("source.always_refresh", c.Source.AlwaysRefresh)
	c.v.Set("source.offline_fallback", c.Source.OfflineFallback)
	c.v.Set("cache.ttl", c.Cache.TTL.String())
	c.v.Set("rewards", c.Rewards)

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("logger.env", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "task_wallet")
	v.SetDefault("database.user", "task_wallet")
	v.SetDefault("database.password", "task_wallet")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("source.base_url", "http://localhost:8081")
	v.SetDefault("source.api_token", "")
	v.SetDefault("source.project_ids", map[string]int{
		"image_classification":  1,
		"audio_classification":  2,
		"text_sentiment":        3,
		"geospatial_labeling":   4,
		"survey":                5,
		"preference_comparison": 6,
		"web3_quiz":             7,
	})
	v.SetDefault("source.request_timeout", "10s")
	v.SetDefault("source.submit_timeout", "15s")
	v.SetDefault("source.probe_timeout", "3s")
	v.SetDefault("source.max_attempts", 3)
	v.SetDefault("source.retry_backoff", "0s")
	v.SetDefault("source.always_refresh", []string{"web3_quiz"})
	v.SetDefault("source.offline_fallback", false)

	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("auth.url", "http://localhost:9999")
	v.SetDefault("auth.api_key", "")

	v.SetDefault("rewards", map[string]float64{
		"image_classification":  0.05,
		"audio_classification":  0.05,
		"text_sentiment":        0.03,
		"geospatial_labeling":   0.10,
		"survey":                0.25,
		"preference_comparison": 0.03,
		"web3_quiz":             0.15,
	})
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".cache/task-wallet"
	}
	return filepath.Join(base, "task-wallet")
}
