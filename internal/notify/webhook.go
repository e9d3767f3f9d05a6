package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event        string   `json:"event"`
	Track        string   `json:"track,omitempty"`
	SilenceForMs int64    `json:"silence_for_ms,omitempty"`
	PlayedMs     int64    `json:"played_ms,omitempty"`
	ActiveApps   []string `json:"active_apps,omitempty"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

// SendAmbientStartedWebhook notifies the configured webhook that ambient
// playback began after the silence threshold was reached.
func SendAmbientStartedWebhook(webhookURL, track string, silenceForMs int64) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:        "ambient_started",
		Track:        track,
		SilenceForMs: silenceForMs,
		Timestamp:    timestampUTC(),
	})
}

// SendAmbientStoppedWebhook notifies the configured webhook that ambient
// playback ended.
func SendAmbientStoppedWebhook(webhookURL, track string, playedMs int64, apps []string) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:      "ambient_stopped",
		Track:      track,
		PlayedMs:   playedMs,
		ActiveApps: apps,
		Timestamp:  timestampUTC(),
	})
}

// SendDegradedWebhook notifies the configured webhook that session capture
// is unavailable.
func SendDegradedWebhook(webhookURL string, captureErr error) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "monitor_degraded",
		Error:     captureErr.Error(),
		Timestamp: timestampUTC(),
	})
}

// SendRecoveredWebhook notifies the configured webhook that session capture
// is working again.
func SendRecoveredWebhook(webhookURL string) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "monitor_recovered",
		Timestamp: timestampUTC(),
	})
}

// SendTestWebhook sends a test webhook notification.
func SendTestWebhook(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "test",
		Message:   "This is a test notification from " + AppName,
		Timestamp: timestampUTC(),
	})
}

// sendWebhook delivers a notification to the configured webhook endpoint.
func sendWebhook(webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil // Silently skip if not configured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: 10000 * time.Millisecond}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "webhook response body")()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
