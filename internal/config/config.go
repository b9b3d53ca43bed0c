package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var (
	once     sync.Once
	instance *Config
)

// ComponentConfig holds the basic network settings a service listens on.
type ComponentConfig struct {
	Protocol string `yaml:"protocol" envconfig:"PROTOCOL"`
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	Debug    bool   `yaml:"debug" envconfig:"DEBUG"`
}

// ClientConfig configures the recommendation client and the request handler.
type ClientConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	LoadingTimeout time.Duration `yaml:"loading_timeout" envconfig:"LOADING_TIMEOUT"`
}

// CatalogConfig points at the book data.
type CatalogConfig struct {
	CSVPath string `yaml:"csv_path" envconfig:"CSV_PATH"`
	DBPath  string `yaml:"db_path" envconfig:"DB_PATH"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	Algorithm    string `yaml:"algorithm" envconfig:"ALGORITHM"`
	DefaultCount int    `yaml:"default_count" envconfig:"DEFAULT_COUNT"`
	MaxCount     int    `yaml:"max_count" envconfig:"MAX_COUNT"`
	Clusters     int    `yaml:"clusters" envconfig:"CLUSTERS"`
}

// RateLimitConfig limits requests per second to the API.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" envconfig:"RPS"`
	Burst int     `yaml:"burst" envconfig:"BURST"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
	JSON  bool   `yaml:"json" envconfig:"JSON"`
}

// Config is the root of the configuration tree, mirroring bookrec.yaml.
type Config struct {
	API       ComponentConfig `yaml:"api" envconfig:"API"`
	Health    ComponentConfig `yaml:"grpc_health" envconfig:"GRPC_HEALTH"`
	Client    ClientConfig    `yaml:"client" envconfig:"CLIENT"`
	Catalog   CatalogConfig   `yaml:"catalog" envconfig:"CATALOG"`
	Recommend RecommendConfig `yaml:"recommend" envconfig:"RECOMMEND"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Log       LogConfig       `yaml:"log" envconfig:"LOG"`
}

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		API:    ComponentConfig{Protocol: "http", Host: "0.0.0.0", Port: 5000},
		Health: ComponentConfig{Protocol: "grpc", Host: "0.0.0.0", Port: 5001},
		Client: ClientConfig{
			BaseURL:        "http://localhost:5000",
			HTTPTimeout:    0,
			LoadingTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			CSVPath: "data/cleaned_data.csv",
			DBPath:  "data/bookrec.db",
		},
		Recommend: RecommendConfig{
			Algorithm:    "kmeans",
			DefaultCount: 5,
			MaxCount:     50,
			Clusters:     10,
		},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of Default and applies BOOKREC_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process("BOOKREC", &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the process-wide configuration (singleton). The file path
// comes from BOOKREC_CONFIG and defaults to bookrec.yaml.
func Get() *Config {
	once.Do(func() {
		path := os.Getenv("BOOKREC_CONFIG")
		if path == "" {
			path = "bookrec.yaml"
		}

		cfg, err := Load(path)
		if err != nil {
			log.Fatalf("[CONFIG ERROR] %v", err)
		}
		instance = cfg
	})
	return instance
}

// Validate checks the values the binaries cannot run without.
func (c *Config) Validate() error {
	if c.API.Port <= 0 {
		return ErrInvalid("api.port is required")
	}
	if c.Client.BaseURL == "" {
		return ErrInvalid("client.base_url is required")
	}
	if c.Recommend.DefaultCount < 1 {
		return ErrInvalid("recommend.default_count must be positive")
	}
	if c.Recommend.MaxCount < c.Recommend.DefaultCount {
		return ErrInvalid("recommend.max_count must be >= default_count")
	}
	switch c.Recommend.Algorithm {
	case "category", "knn", "kmeans":
	default:
		return ErrInvalid(fmt.Sprintf("unknown recommend.algorithm %q", c.Recommend.Algorithm))
	}
	return nil
}

type invalidErr string

func (e invalidErr) Error() string { return "invalid config: " + string(e) }

// ErrInvalid reports a configuration value that failed validation.
func ErrInvalid(msg string) error { return invalidErr(msg) }

// Address returns host:port.
func (c ComponentConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FullURL returns protocol://host:port.
func (c ComponentConfig) FullURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}
