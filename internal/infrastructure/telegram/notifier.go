package telegram

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends alerts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty baseURL
// targets the public Bot API.
func NewNotifier(botToken, chatID, baseURL string) *Notifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both token and chat are set.
func (n *Notifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

// NotifyAlert posts an HTML formatted alert to Telegram.
func (n *Notifier) NotifyAlert(ctx context.Context, entity domain.MonitoredEntity, mention domain.Mention) error {
	if !n.Configured() || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatAlert(entity, mention))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatAlert renders the alert body.
func FormatAlert(entity domain.MonitoredEntity, m domain.Mention) string {
	c := m.Classification
	raw := m.Candidate.Raw

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s mention: %s</b>\n", c.Severity, c.Sentiment, html.EscapeString(entity.FullName))
	fmt.Fprintf(&b, "%s\n", html.EscapeString(raw.Title))
	fmt.Fprintf(&b, "<i>%s</i> · confidence %.2f", html.EscapeString(categoryLabel(c.Category)), m.Match.Confidence)
	if raw.Source != "" {
		fmt.Fprintf(&b, " · %s", html.EscapeString(raw.Source))
	}
	b.WriteString("\n")
	for _, line := range c.Summary {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(line))
	}
	if c.Rationale != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(c.Rationale))
	}
	if raw.URL != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(raw.URL))
	}
	return b.String()
}

func categoryLabel(c domain.Category) string {
	return strings.ReplaceAll(strings.ToLower(string(c)), "_", " ")
}
