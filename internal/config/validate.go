package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. A missing recognition API key
// is not an error here: commands that only organize or clean up never contact
// the service. Use RequireRecognition before identifying.
func (c *Config) Validate() error {
	if err := c.validateIdentification(); err != nil {
		return err
	}
	if err := c.validateSample(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// RequireRecognition reports a configuration error when the recognition
// credential is unavailable.
func (c *Config) RequireRecognition() error {
	if strings.TrimSpace(c.Recognition.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("recognition.api_key is required. Set JELLYZAM_API_KEY env var or edit %s (create with 'jellyzam config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateIdentification() error {
	if c.Identification.ConfidenceThreshold < 0 || c.Identification.ConfidenceThreshold > 1 {
		return errors.New("identification.confidence_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSample() error {
	switch c.Sample.Mode {
	case SampleModeHead, SampleModeWAVWindow:
	default:
		return fmt.Errorf("sample.mode: unsupported value %q (expected %q or %q)", c.Sample.Mode, SampleModeHead, SampleModeWAVWindow)
	}
	if c.Sample.MaxBytes <= 0 {
		return errors.New("sample.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
