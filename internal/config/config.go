package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config/config.yaml"

type Config struct {
	Backend struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"backend"`
	Client struct {
		URL string `yaml:"url"`
	} `yaml:"client"`
	Wallet struct {
		URL string `yaml:"url"`
	} `yaml:"wallet"`
	Chain struct {
		Contract    string `yaml:"contract"`
		ReceiptPoll string `yaml:"receipt_poll"`
		IndexTTL    string `yaml:"index_ttl"`
	} `yaml:"chain"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level string `yaml:"level"`
		Color *bool  `yaml:"color"`
	} `yaml:"log"`
}

// Default returns the configuration used for keys the file leaves empty.
func Default() Config {
	cfg := Config{}
	cfg.Backend.URL = "http://localhost:5000"
	cfg.Backend.Timeout = "30s"
	cfg.Client.URL = "http://localhost:5173"
	cfg.Wallet.URL = "ws://127.0.0.1:8546"
	cfg.Chain.Contract = "0x204533Dd6e6E53fb823f83E079018aB482779C93"
	cfg.Chain.ReceiptPoll = "1s"
	cfg.Chain.IndexTTL = "30s"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file at
// DefaultPath is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ColorEnabled reports whether log output should be coloured; it defaults to on.
func (c Config) ColorEnabled() bool {
	return c.Log.Color == nil || *c.Log.Color
}
