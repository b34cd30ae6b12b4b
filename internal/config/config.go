package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/trace"
)

// Config holds everything memheat reads from its TOML file.
type Config struct {
	LogFile        string
	MemorySize     uint64
	BucketCount    int
	GridColumns    int
	UpdateInterval time.Duration
	FlashThreshold uint64 // 0 disables flashing
	Format         trace.Format
	ZoomPolicy     heatmap.Policy
	FrameHistory   int

	ImagePattern        string
	InstructionsPattern string
	InstructionLines    int
	AuxCacheSize        int

	MetricsAddr string
	LogLevel    logrus.Level
	LogOutput   string
}

const (
	defaultConfigPath       = "~/.config/memheat/config.toml"
	defaultLogFile          = "~/mame/memory_access.log"
	defaultLogOutput        = "~/.local/state/memheat/memheat.log"
	defaultMemorySize       = 16 * 1024 * 1024
	defaultBucketCount      = 10000
	defaultGridColumns      = 100
	defaultUpdateInterval   = 100 * time.Millisecond
	defaultFrameHistory     = 600
	defaultInstructionLines = 200
	defaultAuxCacheSize     = 64
)

// Default returns the built-in configuration with paths expanded.
func Default() Config {
	return Config{
		LogFile:          mustExpand(defaultLogFile),
		MemorySize:       defaultMemorySize,
		BucketCount:      defaultBucketCount,
		GridColumns:      defaultGridColumns,
		UpdateInterval:   defaultUpdateInterval,
		Format:           trace.FormatAuto,
		ZoomPolicy:       heatmap.PolicyHistory,
		FrameHistory:     defaultFrameHistory,
		InstructionLines: defaultInstructionLines,
		AuxCacheSize:     defaultAuxCacheSize,
		LogLevel:         logrus.InfoLevel,
		LogOutput:        mustExpand(defaultLogOutput),
	}
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

type rawConfig struct {
	LogFile             string  `toml:"log_file"`
	MemorySize          *uint64 `toml:"memory_size"`
	BucketCount         *int    `toml:"bucket_count"`
	GridColumns         *int    `toml:"grid_columns"`
	UpdateInterval      string  `toml:"update_interval"`
	FlashThreshold      *uint64 `toml:"flash_threshold"`
	Format              string  `toml:"format"`
	ZoomPolicy          string  `toml:"zoom_policy"`
	FrameHistory        *int    `toml:"frame_history"`
	ImagePattern        string  `toml:"image_pattern"`
	InstructionsPattern string  `toml:"instructions_pattern"`
	InstructionLines    *int    `toml:"instruction_lines"`
	AuxCacheSize        *int    `toml:"aux_cache_size"`
	MetricsAddr         string  `toml:"metrics_addr"`
	LogLevel            string  `toml:"log_level"`
	LogOutput           string  `toml:"log_output"`
}

// Load locates and parses the config, falling back to defaults when missing.
// Numeric keys that are present are taken as written, so an explicit zero
// reaches Validate instead of being replaced by a default.
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

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.MemorySize != nil {
		cfg.MemorySize = *raw.MemorySize
	}
	if raw.BucketCount != nil {
		cfg.BucketCount = *raw.BucketCount
	}
	if raw.GridColumns != nil {
		cfg.GridColumns = *raw.GridColumns
	}
	if v := strings.TrimSpace(raw.UpdateInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: update_interval: %w", err)
		}
		cfg.UpdateInterval = d
	}
	if raw.FlashThreshold != nil {
		cfg.FlashThreshold = *raw.FlashThreshold
	}
	if cfg.Format, err = trace.ParseFormat(raw.Format); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ZoomPolicy, err = heatmap.ParsePolicy(raw.ZoomPolicy); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if raw.FrameHistory != nil {
		cfg.FrameHistory = *raw.FrameHistory
	}
	if v := strings.TrimSpace(raw.ImagePattern); v != "" {
		cfg.ImagePattern = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.InstructionsPattern); v != "" {
		cfg.InstructionsPattern = mustExpand(v)
	}
	if raw.InstructionLines != nil {
		cfg.InstructionLines = *raw.InstructionLines
	}
	if raw.AuxCacheSize != nil {
		cfg.AuxCacheSize = *raw.AuxCacheSize
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if v := strings.TrimSpace(raw.LogOutput); v != "" {
		cfg.LogOutput = mustExpand(v)
	}

	return cfg, nil
}

// Validate rejects settings the aggregator or renderer cannot work with.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.LogFile) == "" {
		problems = append(problems, "log_file is empty")
	}
	if c.MemorySize == 0 {
		problems = append(problems, "memory_size must be positive")
	}
	if c.BucketCount <= 0 {
		problems = append(problems, fmt.Sprintf("bucket_count must be positive, got %d", c.BucketCount))
	} else if uint64(c.BucketCount) > c.MemorySize {
		problems = append(problems, fmt.Sprintf("bucket_count %d exceeds memory_size %d", c.BucketCount, c.MemorySize))
	}
	if c.GridColumns <= 0 {
		problems = append(problems, fmt.Sprintf("grid_columns must be positive, got %d", c.GridColumns))
	}
	if c.UpdateInterval <= 0 {
		problems = append(problems, fmt.Sprintf("update_interval must be positive, got %s", c.UpdateInterval))
	}
	if c.InstructionLines < 0 {
		problems = append(problems, "instruction_lines must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
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
