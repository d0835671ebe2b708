package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories owned by jellyzam itself.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Recognition contains configuration for the remote recognition service.
type Recognition struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Host           string `toml:"host"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// MaxRetries bounds the caller-level retry of transient failures. Zero disables retries.
	MaxRetries int `toml:"max_retries"`
}

// Sample contains configuration for the bytes sent to the recognition service.
type Sample struct {
	// Mode is "head" (leading bytes of the file) or "wav_window" (mid-track PCM window for WAV input).
	Mode          string `toml:"mode"`
	MaxBytes      int    `toml:"max_bytes"`
	WindowSeconds int    `toml:"window_seconds"`
}

// Identification contains match selection and reconciliation settings.
type Identification struct {
	AutoIdentify        bool    `toml:"auto_identify"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	OverwriteExisting   bool    `toml:"overwrite_existing"`
	WriteTags           bool    `toml:"write_tags"`
}

// Organize contains configuration for the artist/album directory layout.
type Organize struct {
	Enabled          bool   `toml:"enabled"`
	BasePath         string `toml:"base_path"`
	CleanupEmptyDirs bool   `toml:"cleanup_empty_dirs"`
}

// Scan contains configuration for batch runs.
type Scan struct {
	RunInitialScan  bool     `toml:"run_initial_scan"`
	RunOnce         bool     `toml:"run_once"`
	Workers         int      `toml:"workers"`
	AudioExtensions []string `toml:"audio_extensions"`
	WatchDirs       []string `toml:"watch_dirs"`
	WatchDebounceMS int      `toml:"watch_debounce_ms"`
}

// Jellyfin contains configuration for Jellyfin library refresh after moves.
type Jellyfin struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Identification bool   `toml:"identification"`
	Scan           bool   `toml:"scan"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for jellyzam.
//
// Configuration sections by subsystem:
//   - Paths: state (catalog database, locks) and log directories
//   - Recognition: remote recognition service credentials and endpoint
//   - Sample: how much of each file is sent for recognition
//   - Identification: confidence threshold and overwrite policy
//   - Organize: artist/album layout and empty directory cleanup
//   - Scan: batch and watch behaviour
//   - Jellyfin: library refresh after files move
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and rotation
type Config struct {
	Paths          Paths          `toml:"paths"`
	Recognition    Recognition    `toml:"recognition"`
	Sample         Sample         `toml:"sample"`
	Identification Identification `toml:"identification"`
	Organize       Organize       `toml:"organize"`
	Scan           Scan           `toml:"scan"`
	Jellyfin       Jellyfin       `toml:"jellyfin"`
	Notifications  Notifications  `toml:"notifications"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// A missing .env is the common case; real environment variables always win.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jellyzam.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories. The organization base path is
// created on a best-effort basis so commands still run while external storage
// is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Organize.Enabled && strings.TrimSpace(c.Organize.BasePath) != "" {
		_ = os.MkdirAll(c.Organize.BasePath, 0o755)
	}
	return nil
}

// CatalogPath returns the location of the local track catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.StateDir, "catalog.db")
}

// LockDir returns the directory holding organization and watcher lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// LogFilePath returns the rotated log file path.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "jellyzam.log")
}

// IsAudioFile reports whether path carries one of the configured audio extensions.
func (c *Config) IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, candidate := range c.Scan.AudioExtensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
