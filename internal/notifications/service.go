package notifications

import (
	"context"
	"net/http"
	"strings"
	"time"

	"jellyzam/internal/config"
)

const defaultRequestTimeout = 10 * time.Second

// BatchSummary is the subset of run statistics reported on completion.
type BatchSummary struct {
	Kind       string
	Total      int
	Processed  int
	Identified int
	Organized  int
	Errored    int
	Cancelled  bool
	Duration   time.Duration
}

// Service defines the notification surface used by identification runs.
type Service interface {
	NotifyTrackIdentified(ctx context.Context, display string, confidence float64) error
	NotifyTrackUnmatched(ctx context.Context, filename string) error
	NotifyBatchCompleted(ctx context.Context, summary BatchSummary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &ntfyService{
		topicURL: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
		enabled: map[category]bool{
			categoryTrack: cfg.Notifications.Identification,
			categoryBatch: cfg.Notifications.Scan,
			categoryError: cfg.Notifications.Errors,
			categoryTest:  true,
		},
	}
}

type noopService struct{}

func (noopService) NotifyTrackIdentified(context.Context, string, float64) error { return nil }
func (noopService) NotifyTrackUnmatched(context.Context, string) error          { return nil }
func (noopService) NotifyBatchCompleted(context.Context, BatchSummary) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
