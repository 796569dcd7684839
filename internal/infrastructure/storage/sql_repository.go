package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY under the worker pool.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// SQLRepository persists monitored entities and mentions.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

var (
	_ ports.EntityRepository  = (*SQLRepository)(nil)
	_ ports.MentionRepository = (*SQLRepository)(nil)
)

// NewSQLRepository wires a sql.DB implementation.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

// EnsureSchema creates the tables when they are missing.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	for _, stmt := range schema(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveEntity upserts a monitored entity.
func (r *SQLRepository) SaveEntity(ctx context.Context, e domain.MonitoredEntity) error {
	if r.db == nil {
		return nil
	}
	if err := e.Validate(); err != nil {
		return err
	}

	aliases, err := encodeList(e.Aliases)
	if err != nil {
		return err
	}
	contextTerms, err := encodeList(e.ContextTerms)
	if err != nil {
		return err
	}
	negativeTerms, err := encodeList(e.NegativeTerms)
	if err != nil {
		return err
	}
	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	query, args, err := r.sb.Insert("entities").
		Columns("id", "full_name", "first_name", "middle_names", "last_name",
			"aliases", "context_terms", "negative_terms", "region", "locality",
			"sources", "active", "updated_at").
		Values(e.ID, e.FullName, e.FirstName, e.MiddleNames, e.LastName,
			aliases, contextTerms, negativeTerms, e.Location.Region, e.Location.Locality,
			string(sources), e.Active, time.Now().Unix()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			first_name = EXCLUDED.first_name,
			middle_names = EXCLUDED.middle_names,
			last_name = EXCLUDED.last_name,
			aliases = EXCLUDED.aliases,
			context_terms = EXCLUDED.context_terms,
			negative_terms = EXCLUDED.negative_terms,
			region = EXCLUDED.region,
			locality = EXCLUDED.locality,
			sources = EXCLUDED.sources,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build entity upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

// ActiveEntities returns every entity flagged active, ordered by identifier.
func (r *SQLRepository) ActiveEntities(ctx context.Context) ([]domain.MonitoredEntity, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("id", "full_name", "first_name", "middle_names", "last_name",
		"aliases", "context_terms", "negative_terms", "region", "locality", "sources").
		From("entities").
		Where(sq.Eq{"active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entity query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}

	var result []domain.MonitoredEntity
	for rows.Next() {
		var (
			e                                     domain.MonitoredEntity
			aliases, contextTerms, negative, srcs string
		)
		if err := rows.Scan(&e.ID, &e.FullName, &e.FirstName, &e.MiddleNames, &e.LastName,
			&aliases, &contextTerms, &negative, &e.Location.Region, &e.Location.Locality, &srcs); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Active = true
		if err := errors.Join(
			decodeJSON(aliases, &e.Aliases),
			decodeJSON(contextTerms, &e.ContextTerms),
			decodeJSON(negative, &e.NegativeTerms),
			decodeJSON(srcs, &e.Sources),
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode entity %s: %w", e.ID, err)
		}
		result = append(result, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return result, nil
}

// SaveMention upserts the mention snapshot. Re-saving the same mention ID
// replaces the classification and state.
func (r *SQLRepository) SaveMention(ctx context.Context, m domain.Mention) error {
	if r.db == nil {
		return nil
	}

	forms, err := json.Marshal(m.Match.Forms)
	if err != nil {
		return fmt.Errorf("encode matched forms: %w", err)
	}
	summary, err := encodeList(m.Classification.Summary)
	if err != nil {
		return err
	}

	raw := m.Candidate.Raw
	var trust sql.NullInt64
	if raw.TrustScore != nil {
		trust = sql.NullInt64{Int64: int64(*raw.TrustScore), Valid: true}
	}

	query, args, err := r.sb.Insert("mentions").
		Columns("id", "entity_id", "candidate_id", "url", "canonical_url", "content_hash",
			"title", "snippet", "source", "provider", "published_at", "trust_score",
			"confidence", "matched_forms", "sentiment", "severity", "category",
			"summary", "rationale", "provenance", "state", "alert_eligible", "created_at").
		Values(m.ID, m.EntityID, m.CandidateID, raw.URL, m.Candidate.CanonicalURL, m.Candidate.ContentHash,
			raw.Title, raw.Snippet, raw.Source, raw.Provider, unixOrZero(raw.PublishedAt), trust,
			m.Match.Confidence, string(forms), string(m.Classification.Sentiment),
			string(m.Classification.Severity), string(m.Classification.Category),
			summary, m.Classification.Rationale, string(m.Classification.Provenance),
			string(m.State), m.AlertEligible, unixOrZero(m.CreatedAt)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			matched_forms = EXCLUDED.matched_forms,
			sentiment = EXCLUDED.sentiment,
			severity = EXCLUDED.severity,
			category = EXCLUDED.category,
			summary = EXCLUDED.summary,
			rationale = EXCLUDED.rationale,
			provenance = EXCLUDED.provenance,
			state = EXCLUDED.state,
			alert_eligible = EXCLUDED.alert_eligible`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mention upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert mention: %w", err)
	}
	return nil
}

// RecentHistory returns the dedup view of mentions created at or after since,
// whatever their state.
func (r *SQLRepository) RecentHistory(ctx context.Context, entityID string, since time.Time) ([]domain.HistoryRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("url", "canonical_url", "content_hash", "title", "source",
		"published_at", "created_at").
		From("mentions").
		Where(sq.Eq{"entity_id": entityID}).
		Where(sq.GtOrEq{"created_at": unixOrZero(since)}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var result []domain.HistoryRecord
	for rows.Next() {
		var (
			h                 domain.HistoryRecord
			published, seenAt int64
		)
		if err := rows.Scan(&h.URL, &h.CanonicalURL, &h.ContentHash, &h.Title, &h.Source, &published, &seenAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.PublishedAt = fromUnix(published)
		h.SeenAt = fromUnix(seenAt)
		result = append(result, h)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return result, nil
}

// PurgeBefore deletes mentions created before cutoff. Dropped mentions go
// with the rest.
func (r *SQLRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, nil
	}

	query, args, err := r.sb.Delete("mentions").
		Where(sq.Lt{"created_at": unixOrZero(cutoff)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge mentions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return n, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeJSON(data string, dst any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), dst)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
