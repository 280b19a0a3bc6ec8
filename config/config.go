package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lanerush/game"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr          string
	DBPath        string
	TickHz        int
	TuningFile    string
	LogLevel      string
	AllowedOrigin string
	SendQueue     int
}

// InitConfig loads .env into the environment. A missing file is fine; the
// process environment is used as is.
func InitConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil

}

func getString(key, def string) string {
	if v, err := GetEnvVariable(key); err == nil {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// Load reads the process configuration after InitConfig.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getString("ADDR", ":8080"),
		DBPath:        getString("DB_PATH", "lanerush.db"),
		TuningFile:    getString("TUNING_FILE", ""),
		LogLevel:      getString("LOG_LEVEL", "info"),
		AllowedOrigin: getString("ALLOWED_ORIGIN", "*"),
	}
	var err error
	if cfg.TickHz, err = getInt("TICK_HZ", 60); err != nil {
		return Config{}, err
	}
	if cfg.SendQueue, err = getInt("SEND_QUEUE", 64); err != nil {
		return Config{}, err
	}
	if cfg.TickHz <= 0 || cfg.TickHz > 240 {
		return Config{}, fmt.Errorf("TICK_HZ out of range: %d", cfg.TickHz)
	}
	if cfg.SendQueue <= 0 {
		return Config{}, fmt.Errorf("SEND_QUEUE must be positive: %d", cfg.SendQueue)
	}
	return cfg, nil
}

// LoadTuning overlays the YAML file at path on game.DefaultConfig. An empty
// path returns the defaults.
func LoadTuning(path string) (game.Config, error) {
	cfg := game.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return game.Config{}, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return game.Config{}, fmt.Errorf("parse tuning: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}
