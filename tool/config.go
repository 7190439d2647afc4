package tool

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/video-splitter-go/types"
)

const (
	MiB = 1024 * 1024
	GiB = 1024 * MiB
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Port:              5000,
		UploadFolder:      "uploads",
		OutputFolder:      "video_splitter",
		AllowedExtensions: []string{"mp4", "avi", "mov", "mkv", "webm"},
		MaxUploadBytes:    100 * GiB,
		SplitMode:         string(types.SplitModeBytes),
		PartSizeMB:        2048, // 2GB parts, fits FAT32 and most upload limits
		BufferSizeKB:      1024,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		Retention:         "1h",
		SweepInterval:     "5m",
		ProgressTTL:       "30m",
		SessionTTL:        "24h",
		SessionCookie:     "vs_session",
		ZipMemoryLimitMB:  256,
		ProgressPushRate:  5,
	}
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return cfg, err
	}

	CurrentConfig = cfg
	return cfg, nil
}

// ValidateConfig rejects values the service cannot run with and fills blanks with defaults.
func ValidateConfig(cfg *types.AppConfig) error {
	def := DefaultConfig()
	cfg.SplitMode = strings.ToLower(strings.TrimSpace(cfg.SplitMode))
	if cfg.SplitMode == "" {
		cfg.SplitMode = def.SplitMode
	}
	if !types.SplitMode(cfg.SplitMode).Valid() {
		return fmt.Errorf("invalid splitMode %q, want bytes or time", cfg.SplitMode)
	}
	if cfg.PartSizeMB <= 0 {
		return fmt.Errorf("partSizeMB must be > 0, got %d", cfg.PartSizeMB)
	}
	if cfg.UploadFolder == "" {
		cfg.UploadFolder = def.UploadFolder
	}
	if cfg.OutputFolder == "" {
		cfg.OutputFolder = def.OutputFolder
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = def.AllowedExtensions
	}
	if cfg.BufferSizeKB <= 0 {
		cfg.BufferSizeKB = def.BufferSizeKB
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = def.SessionCookie
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = def.FFprobePath
	}
	if cfg.ProgressPushRate <= 0 {
		cfg.ProgressPushRate = def.ProgressPushRate
	}
	return nil
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

// DurationOr parses a duration string from config, falling back when it is empty or invalid.
func DurationOr(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		DefaultLogger.Warnf("Invalid duration %q in config, using %s", value, fallback)
		return fallback
	}
	return d
}
