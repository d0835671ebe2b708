package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "jellyzam/0.1"

type category int

const (
	categoryTrack category = iota
	categoryBatch
	categoryError
	categoryTest
)

// message is one ntfy publish: body plus the Title, Tags and Priority headers.
type message struct {
	category category
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	topicURL string
	client   *http.Client
	enabled  map[category]bool
}

func (n *ntfyService) NotifyTrackIdentified(ctx context.Context, display string, confidence float64) error {
	return n.publish(ctx, message{
		category: categoryTrack,
		title:    "Jellyzam - Identified",
		body:     fmt.Sprintf("🎵 Identified: %s (confidence %.2f)", strings.TrimSpace(display), confidence),
		tags:     []string{"jellyzam", "identify", "completed"},
	})
}

func (n *ntfyService) NotifyTrackUnmatched(ctx context.Context, filename string) error {
	return n.publish(ctx, message{
		category: categoryTrack,
		title:    "Jellyzam - No Match",
		body:     "Could not identify: " + strings.TrimSpace(filename),
		tags:     []string{"jellyzam", "identify", "unmatched"},
	})
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, s BatchSummary) error {
	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		kind = "scan"
	}
	title := "Jellyzam - Scan Complete"
	if s.Cancelled {
		title = "Jellyzam - Scan Cancelled"
	} else if s.Errored > 0 {
		title += " (with errors)"
	}
	return n.publish(ctx, message{
		category: categoryBatch,
		title:    title,
		body: fmt.Sprintf("%s: %d/%d processed, %d identified, %d organized, %d failed in %s",
			kind, s.Processed, s.Total, s.Identified, s.Organized, s.Errored, max(s.Duration.Round(time.Second), 0)),
		tags: []string{"jellyzam", "scan", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	prefix := "❌ Error"
	if label := strings.TrimSpace(contextLabel); label != "" {
		prefix += " with " + label
	}
	return n.publish(ctx, message{
		category: categoryError,
		title:    "Jellyzam - Error",
		body:     prefix + ": " + detail,
		tags:     []string{"jellyzam", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, message{
		category: categoryTest,
		title:    "Jellyzam - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"jellyzam", "test"},
		priority: "low",
	})
}

// publish posts msg to the topic URL unless its category is switched off.
func (n *ntfyService) publish(ctx context.Context, msg message) error {
	if !n.enabled[msg.category] {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	headers := map[string]string{
		"User-Agent":   userAgent,
		"Content-Type": "text/plain; charset=utf-8",
		"Title":        msg.title,
		"Tags":         strings.Join(msg.tags, ","),
		"Priority":     msg.priority,
	}
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
