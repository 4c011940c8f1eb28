package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything pawswipe needs to talk to the rescue API and
// keep its local state.
type Config struct {
	APIURL       string
	DataDir      string
	BatchSize    int
	LowWaterMark int
	MaxQueueSize int
	RequestRate  float64
	Randomize    bool
	LogFile      string
	LogLevel     string
	LogFormat    string
	MetricsAddr  string
}

const (
	defaultConfigPath   = "~/.config/pawswipe/config.toml"
	defaultDataDir      = "~/.local/share/pawswipe"
	defaultAPIURL       = "http://127.0.0.1:8080"
	defaultBatchSize    = 20
	defaultLowWaterMark = 5
	defaultMaxQueueSize = 100
	defaultRequestRate  = 10
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
)

// Load locates and parses the pawswipe config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL       string  `toml:"api_url"`
		DataDir      string  `toml:"data_dir"`
		BatchSize    int     `toml:"batch_size"`
		LowWaterMark int     `toml:"low_water_mark"`
		MaxQueueSize int     `toml:"max_queue_size"`
		RequestRate  float64 `toml:"request_rate"`
		Randomize    bool    `toml:"randomize"`
		LogFile      string  `toml:"log_file"`
		LogLevel     string  `toml:"log_level"`
		LogFormat    string  `toml:"log_format"`
		MetricsAddr  string  `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
		cfg.LogFile = filepath.Join(cfg.DataDir, "pawswipe.log")
	}
	if raw.BatchSize > 0 {
		cfg.BatchSize = raw.BatchSize
	}
	if raw.LowWaterMark > 0 {
		cfg.LowWaterMark = raw.LowWaterMark
	}
	if raw.MaxQueueSize > 0 {
		cfg.MaxQueueSize = raw.MaxQueueSize
	}
	if cfg.MaxQueueSize < cfg.BatchSize {
		cfg.MaxQueueSize = cfg.BatchSize
	}
	if raw.RequestRate > 0 {
		cfg.RequestRate = raw.RequestRate
	}
	cfg.Randomize = raw.Randomize
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		cfg.LogFormat = v
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dataDir := mustExpand(defaultDataDir)
	return Config{
		APIURL:       defaultAPIURL,
		DataDir:      dataDir,
		BatchSize:    defaultBatchSize,
		LowWaterMark: defaultLowWaterMark,
		MaxQueueSize: defaultMaxQueueSize,
		RequestRate:  defaultRequestRate,
		LogFile:      filepath.Join(dataDir, "pawswipe.log"),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
	}
}

// StatePath returns the path to the local state database.
func (c Config) StatePath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/state.db")
	}
	return filepath.Join(c.DataDir, "state.db")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath expands a leading ~ to the home directory and returns the
// absolute form of path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
