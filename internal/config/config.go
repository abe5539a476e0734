package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultServerAddr is used when neither config nor environment names a
// backend.
const DefaultServerAddr = "localhost:8000"

// Config is the global ~/.bashchat/config.toml, with environment
// overrides applied on top (BASHCHAT_SERVER_ADDR, BASHCHAT_DEFAULT_SESSION).
type Config struct {
	DefaultSession string `toml:"default_session" envconfig:"DEFAULT_SESSION"`
	// ServerAddr is host:port of the chat backend.
	ServerAddr string `toml:"server_addr" envconfig:"SERVER_ADDR"`
}

// Load reads config from the given path. Returns zero config and error if
// the file is missing or malformed; environment overrides are not applied.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve loads the config file if present, then layers environment
// variables (and a .env file, when one exists in the working directory)
// over it. A missing config file is not an error here: the zero config
// plus environment is a valid setup.
func Resolve(path string) (*Config, error) {
	cfg := &Config{}
	if loaded, err := Load(path); err == nil {
		cfg = loaded
	}

	_ = godotenv.Load()
	if err := envconfig.Process("bashchat", cfg); err != nil {
		return nil, err
	}

	if cfg.ServerAddr == "" {
		cfg.ServerAddr = DefaultServerAddr
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
