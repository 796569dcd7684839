package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/domain"
)

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func TestNotifyAlertPublishesEvent(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	nc := &recordingConn{}
	p := newPublisher(nc, "")

	err := p.NotifyAlert(context.Background(),
		domain.MonitoredEntity{ID: "dir-1", FullName: "John Doe"},
		domain.Mention{
			ID:        "m-1",
			Candidate: domain.NormalizedCandidate{Raw: domain.RawCandidate{URL: "https://a.example/1", Title: "John Doe arrested"}},
			Match:     domain.MatchResult{Confidence: 0.9},
			Classification: domain.ClassificationResult{
				Sentiment:  domain.SentimentNegative,
				Severity:   domain.SeverityHigh,
				Category:   domain.CategoryLegalCourt,
				Provenance: domain.ProvenanceHeuristic,
			},
			CreatedAt: created,
		})
	require.NoError(t, err)
	assert.Equal(t, defaultSubject, nc.subject)

	var evt AlertEvent
	require.NoError(t, json.Unmarshal(nc.data, &evt))
	assert.Equal(t, "m-1", evt.MentionID)
	assert.Equal(t, "dir-1", evt.EntityID)
	assert.Equal(t, "HIGH", evt.Severity)
	assert.Equal(t, 0.9, evt.Confidence)
	assert.True(t, evt.PublishedAt.IsZero())
	assert.Equal(t, created, evt.CreatedAt)
	assert.NotContains(t, string(nc.data), "published_at")
}

func TestNotifyAlertPublishError(t *testing.T) {
	t.Parallel()

	p := newPublisher(&recordingConn{err: errors.New("nats: connection closed")}, "alerts")
	err := p.NotifyAlert(context.Background(), domain.MonitoredEntity{}, domain.Mention{})

	assert.ErrorContains(t, err, "publish alert")
}
