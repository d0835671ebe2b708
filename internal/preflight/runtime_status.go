package preflight

import (
	"context"
	"fmt"
	"strings"

	"jellyzam/internal/config"
)

// CheckJellyfinFromConfig evaluates Jellyfin status from config and connectivity.
func CheckJellyfinFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Jellyfin"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Jellyfin.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Jellyfin.URL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	if strings.TrimSpace(cfg.Jellyfin.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckJellyfin(ctx, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
}

// CheckNotificationsFromConfig reports whether ntfy notifications are set up
// and which events are enabled.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var events []string
	if cfg.Notifications.Identification {
		events = append(events, "identification")
	}
	if cfg.Notifications.Scan {
		events = append(events, "scan")
	}
	if cfg.Notifications.Errors {
		events = append(events, "errors")
	}
	if len(events) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (all events muted)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(events, ", "))}
}

// CheckOrganizeFromConfig summarizes the organization settings.
func CheckOrganizeFromConfig(cfg *config.Config) Result {
	const name = "Organization"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Organize.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Organize.BasePath) == "" {
		return Result{Name: name, Passed: true, Detail: "In place (next to each source file)"}
	}
	return CheckTargetDirectory(name, cfg.Organize.BasePath)
}
