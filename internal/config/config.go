package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines client and reference backend configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Upload  UploadConfig  `yaml:"upload"`
	Chat    ChatConfig    `yaml:"chat"`
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
}

type AuthConfig struct {
	IDToken string `yaml:"id_token"`
}

type UploadConfig struct {
	Collection string `yaml:"collection"`
	MaxBytes   int64  `yaml:"max_bytes"`
}

type ChatConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	ResultLimit   int           `yaml:"result_limit"`
	SerializeAsks bool          `yaml:"serialize_asks"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			URL:       "http://localhost:8080",
			Timeout:   60 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		Upload: UploadConfig{
			Collection: "test_collection3",
			MaxBytes:   10 * 1024 * 1024,
		},
		Chat: ChatConfig{
			Debounce:      500 * time.Millisecond,
			SerializeAsks: true,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "pdftalks.db",
		},
		Log: LogConfig{
			Level: "info",
			Path:  defaultLogPath(),
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv("PDFTALKS_CONFIG_PATH"))
}

// LoadFile reads configuration from path, when non-empty, then applies
// environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if url := os.Getenv("PDFTALKS_BACKEND_URL"); url != "" {
		cfg.Backend.URL = url
	}
	if token := os.Getenv("PDFTALKS_ID_TOKEN"); token != "" {
		cfg.Auth.IDToken = token
	}
	if level := os.Getenv("PDFTALKS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("PDFTALKS_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if host := os.Getenv("PDFTALKS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PDFTALKS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PDFTALKS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PDFTALKS_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if maxStr := os.Getenv("PDFTALKS_UPLOAD_MAX_BYTES"); maxStr != "" {
		maxBytes, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PDFTALKS_UPLOAD_MAX_BYTES: %w", err)
		}
		cfg.Upload.MaxBytes = maxBytes
	}
	if debounceStr := os.Getenv("PDFTALKS_CHAT_DEBOUNCE"); debounceStr != "" {
		debounce, err := time.ParseDuration(debounceStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PDFTALKS_CHAT_DEBOUNCE: %w", err)
		}
		cfg.Chat.Debounce = debounce
	}

	return cfg, nil
}

// Addr returns the reference backend listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pdftalks.log"
	}
	return filepath.Join(home, ".config", "pdftalks", "pdftalks.log")
}
