package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecognition()
	c.normalizeSample()
	if err := c.normalizeOrganize(); err != nil {
		return err
	}
	if err := c.normalizeScan(); err != nil {
		return err
	}
	c.normalizeJellyfin()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecognition() {
	c.Recognition.APIKey = strings.TrimSpace(c.Recognition.APIKey)
	if c.Recognition.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYZAM_API_KEY"); ok {
			c.Recognition.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("RAPIDAPI_KEY"); ok {
			c.Recognition.APIKey = strings.TrimSpace(value)
		}
	}
	c.Recognition.BaseURL = strings.TrimRight(strings.TrimSpace(c.Recognition.BaseURL), "/")
	if c.Recognition.BaseURL == "" {
		c.Recognition.BaseURL = defaultRecognitionBaseURL
	}
	c.Recognition.Host = strings.TrimSpace(c.Recognition.Host)
	if c.Recognition.Host == "" {
		c.Recognition.Host = defaultRecognitionHost
	}
	if c.Recognition.TimeoutSeconds <= 0 {
		c.Recognition.TimeoutSeconds = defaultRecognitionTimeoutSeconds
	}
	if c.Recognition.MaxRetries < 0 {
		c.Recognition.MaxRetries = 0
	}
}

func (c *Config) normalizeSample() {
	c.Sample.Mode = strings.ToLower(strings.TrimSpace(c.Sample.Mode))
	if c.Sample.Mode == "" {
		c.Sample.Mode = defaultSampleMode
	}
	if c.Sample.MaxBytes <= 0 {
		c.Sample.MaxBytes = defaultSampleMaxBytes
	}
	if c.Sample.WindowSeconds <= 0 {
		c.Sample.WindowSeconds = defaultSampleWindowSeconds
	}
}

func (c *Config) normalizeOrganize() error {
	if strings.TrimSpace(c.Organize.BasePath) == "" {
		c.Organize.BasePath = ""
		return nil
	}
	var err error
	if c.Organize.BasePath, err = expandPath(c.Organize.BasePath); err != nil {
		return fmt.Errorf("organize.base_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() error {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	if c.Scan.WatchDebounceMS <= 0 {
		c.Scan.WatchDebounceMS = defaultWatchDebounceMS
	}
	if len(c.Scan.AudioExtensions) == 0 {
		c.Scan.AudioExtensions = append([]string(nil), defaultAudioExtensions...)
	} else {
		exts := make([]string, 0, len(c.Scan.AudioExtensions))
		seen := make(map[string]struct{}, len(c.Scan.AudioExtensions))
		for _, ext := range c.Scan.AudioExtensions {
			normalized := strings.ToLower(strings.TrimSpace(ext))
			if normalized == "" {
				continue
			}
			if !strings.HasPrefix(normalized, ".") {
				normalized = "." + normalized
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			exts = append(exts, normalized)
		}
		if len(exts) == 0 {
			exts = append(exts, defaultAudioExtensions...)
		}
		c.Scan.AudioExtensions = exts
	}
	dirs := make([]string, 0, len(c.Scan.WatchDirs))
	for _, dir := range c.Scan.WatchDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("scan.watch_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Scan.WatchDirs = dirs
	return nil
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}
