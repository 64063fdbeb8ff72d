package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL    string `yaml:"server_url"`
	Token        string `yaml:"token"`
	DBPath       string `yaml:"db_path"`
	PageSize     int    `yaml:"page_size"`
	StaleSeconds int    `yaml:"stale_seconds"`
}

func Default() Config {
	return Config{
		ServerURL:    "http://localhost:8080",
		PageSize:     50,
		StaleSeconds: 30,
	}
}

// Load reads a yaml config file over the defaults. A missing file is
// not an error; explicit garbage is.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("AGENDAD_SERVER_URL"); ok {
		cfg.ServerURL = v
	}
	if v, ok := getEnvString("AGENDAD_TOKEN"); ok {
		cfg.Token = v
	}
	if v, ok := getEnvString("AGENDAD_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvInt("AGENDAD_PAGE_SIZE"); ok && v > 0 {
		cfg.PageSize = v
	}
	if v, ok := getEnvInt("AGENDAD_STALE_SECONDS"); ok && v > 0 {
		cfg.StaleSeconds = v
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("config: server_url is required")
	}
	if c.PageSize <= 0 {
		return errors.New("config: page_size must be positive")
	}
	if c.StaleSeconds <= 0 {
		return errors.New("config: stale_seconds must be positive")
	}
	return nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "agendad.yaml"
	}
	return filepath.Join(dir, "agendad", "config.yaml")
}

// DefaultDBPath returns the conventional database location.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "agendad.db"
	}
	return filepath.Join(dir, "agendad", "agendad.db")
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
