package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/domain"
)

func newTestRepository(t *testing.T) *SQLRepository {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLRepository(db, SQLite)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestEntityRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	active := domain.MonitoredEntity{
		ID:            "dir-1",
		FullName:      "John Doe",
		Aliases:       []string{"J. Doe"},
		ContextTerms:  []string{"ABC Corp"},
		NegativeTerms: []string{"actor"},
		Location:      domain.Location{Region: "MH", Locality: "Mumbai"},
		Sources:       map[string]bool{"gdelt": true},
		Active:        true,
	}
	inactive := domain.MonitoredEntity{ID: "dir-2", FullName: "Jane Roe"}

	require.NoError(t, repo.SaveEntity(ctx, active))
	require.NoError(t, repo.SaveEntity(ctx, inactive))
	assert.ErrorIs(t, repo.SaveEntity(ctx, domain.MonitoredEntity{ID: "bad"}), domain.ErrInvalidEntity)

	got, err := repo.ActiveEntities(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active, got[0])

	// Upsert replaces the stored row.
	active.ContextTerms = []string{"ABC Corp", "board"}
	require.NoError(t, repo.SaveEntity(ctx, active))
	got, err = repo.ActiveEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC Corp", "board"}, got[0].ContextTerms)
}

func TestMentionHistory(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	trust := 85

	m := domain.Mention{
		ID:          "m-1",
		EntityID:    "dir-1",
		CandidateID: "c-1",
		Candidate: domain.NormalizedCandidate{
			Raw: domain.RawCandidate{
				URL:         "https://news.example.com/a",
				Title:       "John Doe appointed",
				Source:      "news.example.com",
				PublishedAt: created.Add(-time.Hour),
				TrustScore:  &trust,
			},
			CanonicalURL: "https://news.example.com/a",
			ContentHash:  "abc123",
		},
		Match: domain.MatchResult{
			Matched:    true,
			Confidence: 0.8,
			Forms:      []domain.MatchedForm{{Form: "John Doe", Region: domain.RegionTitle, Span: "John Doe"}},
		},
		Classification: domain.ClassificationResult{
			Sentiment:  domain.SentimentPositive,
			Severity:   domain.SeverityLow,
			Category:   domain.CategoryBoardAppointment,
			Summary:    []string{"John Doe appointed."},
			Provenance: domain.ProvenanceHeuristic,
		},
		State:     domain.StateAccepted,
		CreatedAt: created,
	}
	old := m
	old.ID = "m-0"
	old.CreatedAt = created.Add(-10 * 24 * time.Hour)

	require.NoError(t, repo.SaveMention(ctx, m))
	require.NoError(t, repo.SaveMention(ctx, old))
	// Saving again is an upsert, not a duplicate row.
	require.NoError(t, repo.SaveMention(ctx, m))

	history, err := repo.RecentHistory(ctx, "dir-1", created.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, m.History(), history[0])

	none, err := repo.RecentHistory(ctx, "dir-2", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func storedMention(id, url string, created time.Time, state domain.AcceptanceState) domain.Mention {
	return domain.Mention{
		ID:          id,
		EntityID:    "dir-1",
		CandidateID: "c-" + id,
		Candidate: domain.NormalizedCandidate{
			Raw:          domain.RawCandidate{URL: url, Title: "John Doe " + id},
			CanonicalURL: url,
		},
		Classification: domain.ClassificationResult{
			Sentiment:  domain.SentimentNeutral,
			Severity:   domain.SeverityLow,
			Category:   domain.CategoryOther,
			Provenance: domain.ProvenanceHeuristic,
		},
		State:     state,
		CreatedAt: created,
	}
}

func TestDroppedMentionsStayInHistory(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	kept := storedMention("kept", "https://news.example.com/kept", created, domain.StateAccepted)
	dropped := storedMention("dropped", "https://news.example.com/dropped", created, domain.StateDropped)
	require.NoError(t, repo.SaveMention(ctx, kept))
	require.NoError(t, repo.SaveMention(ctx, dropped))

	history, err := repo.RecentHistory(ctx, "dir-1", created.Add(-time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.HistoryRecord{kept.History(), dropped.History()}, history)
}

func TestPurgeBefore(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveMention(ctx, storedMention("old", "https://a.example/old", now.Add(-400*24*time.Hour), domain.StateAccepted)))
	require.NoError(t, repo.SaveMention(ctx, storedMention("old-dropped", "https://a.example/od", now.Add(-380*24*time.Hour), domain.StateDropped)))
	require.NoError(t, repo.SaveMention(ctx, storedMention("fresh", "https://a.example/fresh", now.Add(-time.Hour), domain.StateAccepted)))

	n, err := repo.PurgeBefore(ctx, now.Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	history, err := repo.RecentHistory(ctx, "dir-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "https://a.example/fresh", history[0].URL)

	n, err = repo.PurgeBefore(ctx, now.Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Dialect("oracle"), "")
	assert.ErrorContains(t, err, "unsupported")
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewSQLRepository(nil, Postgres)
	ctx := context.Background()

	assert.NoError(t, repo.EnsureSchema(ctx))
	assert.NoError(t, repo.SaveMention(ctx, domain.Mention{}))
	purged, err := repo.PurgeBefore(ctx, time.Now())
	assert.NoError(t, err)
	assert.Zero(t, purged)
	entities, err := repo.ActiveEntities(ctx)
	assert.NoError(t, err)
	assert.Nil(t, entities)
}
