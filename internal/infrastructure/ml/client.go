package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

// Client talks to a self-hosted classification service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.ExternalClassifier = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Key        string `json:"key,omitempty"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet,omitempty"`
	Body       string `json:"body,omitempty"`
	TrustScore *int   `json:"trust_score,omitempty"`
}

type classifyResponse struct {
	Sentiment string   `json:"sentiment"`
	Severity  string   `json:"severity"`
	Category  string   `json:"category"`
	Summary   []string `json:"summary"`
	Rationale string   `json:"rationale"`
}

// Classify posts the article text to /classify.
func (c *Client) Classify(ctx context.Context, in domain.ClassificationInput) (domain.ClassificationResult, error) {
	if c.endpoint == "" {
		return domain.ClassificationResult{}, fmt.Errorf("classification service endpoint is not configured")
	}

	payload := classifyRequest{
		Key:        in.Key,
		Title:      in.Title,
		Snippet:    in.Snippet,
		Body:       in.Body,
		TrustScore: in.TrustScore,
	}

	var resp classifyResponse
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return domain.ClassificationResult{}, err
	}

	return domain.ClassificationResult{
		Sentiment: domain.Sentiment(resp.Sentiment),
		Severity:  domain.Severity(resp.Severity),
		Category:  domain.Category(resp.Category),
		Summary:   resp.Summary,
		Rationale: resp.Rationale,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
