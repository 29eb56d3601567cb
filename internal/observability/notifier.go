package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Digest is one batch of alerts for a project.
type Digest struct {
	ProjectID   string
	ProjectName string
	Alerts      []Alert
}

// Notifier pushes schedule alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier posting to a Slack incoming webhook.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the digest as a single Slack message. An empty digest sends
// nothing.
func (s *slackNotifier) Notify(ctx context.Context, d Digest) error {
	if len(d.Alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(buildSlackMessage(d))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d for %d alert(s)", resp.StatusCode, len(d.Alerts))
	}
	return nil
}

// buildSlackMessage groups the alerts by severity, most urgent first, with
// one section per non-empty severity.
func buildSlackMessage(d Digest) slackMessage {
	title := fmt.Sprintf("%d schedule alert(s)", len(d.Alerts))
	if name := projectLabel(d); name != "" {
		title = name + ": " + title
	}

	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: title},
	}}

	for _, sev := range []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow} {
		var lines []string
		for _, a := range d.Alerts {
			if a.Severity == sev {
				lines = append(lines, fmt.Sprintf("• %s _(%s)_", a.Message, a.TriggeredAt.UTC().Format("2006-01-02 15:04 UTC")))
			}
		}
		if len(lines) == 0 {
			continue
		}
		if len(blocks) > 1 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		text := fmt.Sprintf("%s *%s*\n%s", severityEmoji(sev), strings.ToUpper(string(sev)), strings.Join(lines, "\n"))
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	if d.ProjectID != "" {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "project `" + d.ProjectID + "`"}},
		})
	}

	return slackMessage{Text: title, Blocks: blocks}
}

func projectLabel(d Digest) string {
	if d.ProjectName != "" {
		return d.ProjectName
	}
	return d.ProjectID
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	default:
		return "\U0001f535"
	}
}
