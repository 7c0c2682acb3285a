package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pskrmon/pskrmon/internal/config"
)

// encoder renders an alert as a webhook request body.
type encoder func(a *Alert) ([]byte, error)

var encoders = map[string]encoder{
	"slack": slackBody,
	"teams": teamsBody,
	"http":  genericBody,
}

// deliver posts a to every webhook whose URL resolves. Failures are logged.
func (e *Engine) deliver(webhooks []config.WebhookConfig, a *Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		enc, ok := encoders[wh.Type]
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		body, err := enc(a)
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed", "type", wh.Type, "rule", a.RuleName, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// slackBody uses the incoming-webhook text format.
func slackBody(a *Alert) ([]byte, error) {
	text := fmt.Sprintf("%s *%s* on `%s`\n%s = %.2f (rule: `%s`)",
		severityLabel(a.Severity), a.RuleName, a.Source, metricOf(a.Condition), a.Value, a.Condition)
	if a.State == StateResolved {
		text = fmt.Sprintf("[RESOLVED] *%s* on `%s`", a.RuleName, a.Source)
	}
	return json.Marshal(map[string]string{"text": text})
}

// teamsBody uses the legacy connector MessageCard format.
func teamsBody(a *Alert) ([]byte, error) {
	facts := []map[string]string{
		{"name": "Station", "value": a.Source},
		{"name": "Condition", "value": a.Condition},
		{"name": "Value", "value": fmt.Sprintf("%.2f", a.Value)},
		{"name": "Fired", "value": a.FiredAt.UTC().Format("2006-01-02 15:04:05 MST")},
	}
	return json.Marshal(map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("pskrmon %s: %s", a.State, a.RuleName),
		"sections":   []map[string]interface{}{{"facts": facts}},
	})
}

// genericBody wraps the alert with an event name for routing.
func genericBody(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": "alert." + a.State,
		"alert": a,
	})
}

func (e *Engine) post(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pskrmon-alerts")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// metricOf returns the field name of a "field op value" condition.
func metricOf(cond string) string {
	for i, r := range cond {
		if r == ' ' {
			return cond[:i]
		}
	}
	return cond
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "D32F2F"
	case "warning":
		return "F9A825"
	default:
		return "1976D2"
	}
}
