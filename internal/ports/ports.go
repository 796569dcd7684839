package ports

import (
	"context"
	"time"

	"MentionMonitor/internal/domain"
)

// EntityRepository loads and stores monitored entities.
type EntityRepository interface {
	ActiveEntities(ctx context.Context) ([]domain.MonitoredEntity, error)
	SaveEntity(ctx context.Context, entity domain.MonitoredEntity) error
}

// MentionRepository persists finished mentions and replays recent history for dedup.
type MentionRepository interface {
	SaveMention(ctx context.Context, mention domain.Mention) error
	RecentHistory(ctx context.Context, entityID string, since time.Time) ([]domain.HistoryRecord, error)
	// PurgeBefore deletes mentions created before cutoff and reports how many went.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CandidateSource collects raw candidates for one entity from upstream providers.
type CandidateSource interface {
	Collect(ctx context.Context, entity domain.MonitoredEntity, since time.Time) ([]domain.RawCandidate, error)
}

// ContentFetcher extracts article text for a URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ExternalClassifier is an optional model that overrides the heuristic classification.
type ExternalClassifier interface {
	Classify(ctx context.Context, in domain.ClassificationInput) (domain.ClassificationResult, error)
}

// Notifier delivers alert-eligible mentions to Telegram or other channels.
type Notifier interface {
	NotifyAlert(ctx context.Context, entity domain.MonitoredEntity, mention domain.Mention) error
}

// Scheduler controls when monitoring cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
