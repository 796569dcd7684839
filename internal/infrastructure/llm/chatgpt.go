package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MentionMonitor/internal/config"
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

const (
	defaultModel    = "gpt-4o-mini"
	maxContentChars = 4000
)

// ChatGPTClient implements ports.ExternalClassifier backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.ExternalClassifier = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.LLMConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether the client has everything it needs to call out.
func (c *ChatGPTClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.endpoint != ""
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// verdict is the JSON object the model is asked to return.
type verdict struct {
	Sentiment    string   `json:"sentiment"`
	Severity     string   `json:"severity"`
	Category     string   `json:"category"`
	Summary      []string `json:"summary_bullets"`
	WhyItMatters string   `json:"why_it_matters"`
}

// Classify asks the model for a verdict. Enum values are passed through as
// returned; the caller rejects unknown ones.
func (c *ChatGPTClient) Classify(ctx context.Context, in domain.ClassificationInput) (domain.ClassificationResult, error) {
	if c == nil {
		return domain.ClassificationResult{}, fmt.Errorf("chatgpt client is nil")
	}
	if !c.Configured() {
		return domain.ClassificationResult{}, fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: articlePrompt(in)},
		},
		Temperature:    0.2,
		MaxTokens:      800,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("send classification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ClassificationResult{}, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return domain.ClassificationResult{}, fmt.Errorf("chatgpt returned no choices")
	}

	v, err := parseVerdict(decoded.Choices[0].Message.Content)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	return domain.ClassificationResult{
		Sentiment: domain.Sentiment(v.Sentiment),
		Severity:  domain.Severity(v.Severity),
		Category:  domain.Category(v.Category),
		Summary:   v.Summary,
		Rationale: strings.TrimSpace(v.WhyItMatters),
	}, nil
}

// parseVerdict tolerates markdown code fences and prose around the object.
func parseVerdict(content string) (verdict, error) {
	text := strings.TrimSpace(content)
	if _, after, ok := strings.Cut(text, "```"); ok {
		after = strings.TrimPrefix(after, "json")
		before, _, _ := strings.Cut(after, "```")
		text = strings.TrimSpace(before)
	}

	var v verdict
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return verdict{}, fmt.Errorf("chatgpt reply holds no JSON object")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return verdict{}, fmt.Errorf("parse chatgpt verdict: %w", err)
	}
	return v, nil
}

func articlePrompt(in domain.ClassificationInput) string {
	content := in.Body
	if runes := []rune(content); len(runes) > maxContentChars {
		content = string(runes[:maxContentChars])
	}
	if strings.TrimSpace(content) == "" {
		content = "No additional content"
	}

	var b strings.Builder
	b.WriteString("Article to analyze:\n")
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Snippet: %s\n", in.Snippet)
	fmt.Fprintf(&b, "Content: %s\n", content)
	if in.TrustScore != nil {
		fmt.Fprintf(&b, "Source trust score (0-100): %d\n", *in.TrustScore)
	}
	b.WriteString(`
Return ONLY valid JSON, no other text:
{
  "sentiment": "positive" | "negative" | "neutral" | "mixed",
  "severity": "low" | "medium" | "high",
  "category": "regulatory_enforcement" | "legal_court" | "litigation" | "corporate_governance" | "financial_corporate" | "governance_board_appointment" | "esg_social_political" | "awards_recognition" | "other",
  "summary_bullets": ["key point 1", "key point 2", "key point 3"],
  "why_it_matters": "1-2 sentence explanation for board-level reputation monitoring"
}`)
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return `You analyze news articles about corporate directors for a board-level reputation monitoring system.
Read the full context, not just keywords: a mention of a regulator or a court is not negative by itself.
HIGH severity is for arrests, convictions, major fraud, regulatory bans and criminal charges.
MEDIUM is for investigations, pending lawsuits, allegations and notices.
LOW is for routine, neutral or positive news.`
	}
	return prompt
}
