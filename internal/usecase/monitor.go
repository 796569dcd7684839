package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"MentionMonitor/internal/canonical"
	"MentionMonitor/internal/classify"
	"MentionMonitor/internal/dedup"
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

// RuleSource hands out the current classifier rule snapshot.
type RuleSource interface {
	Current() *classify.Evaluator
}

// StaticRules is a RuleSource that never changes.
type StaticRules struct {
	Evaluator *classify.Evaluator
}

func (s StaticRules) Current() *classify.Evaluator {
	return s.Evaluator
}

// MonitorConfig controls one monitoring cycle.
type MonitorConfig struct {
	Pipeline PipelineConfig
	// Retention is the dedup window replayed from history at cycle start.
	Retention time.Duration
	// DataRetention bounds how long mentions stay persisted. Zero disables purging.
	DataRetention time.Duration
	// Lookback bounds how far back providers are asked to search.
	Lookback          time.Duration
	EntityConcurrency int
	FetchConcurrency  int
}

// MonitorDeps wires all driven adapters into the monitoring cycle.
type MonitorDeps struct {
	Entities ports.EntityRepository
	Mentions ports.MentionRepository
	Source   ports.CandidateSource
	Fetcher  ports.ContentFetcher
	Notifier ports.Notifier
	Rules    RuleSource
	Pipeline *Pipeline
	Logger   *slog.Logger
}

// EntityReport summarizes one entity's share of a cycle.
type EntityReport struct {
	EntityID  string
	Collected int
	Fetched   int
	Saved     int
	// Dropped counts over-cap mentions persisted only for dedup.
	Dropped int
	Alerts  int
	Batch   BatchResult
	Err     error
}

// CycleReport is returned by RunCycle.
type CycleReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Entities  []EntityReport
}

// Failed counts entities whose processing stopped on an error.
func (r CycleReport) Failed() int {
	n := 0
	for _, e := range r.Entities {
		if e.Err != nil {
			n++
		}
	}
	return n
}

// Monitor runs collection, the decision pipeline, persistence and notification
// for every active entity.
type Monitor struct {
	entities ports.EntityRepository
	mentions ports.MentionRepository
	source   ports.CandidateSource
	fetcher  ports.ContentFetcher
	notifier ports.Notifier
	rules    RuleSource
	pipeline *Pipeline
	cfg      MonitorConfig
	logger   *slog.Logger
}

// NewMonitor constructs the cycle use case.
func NewMonitor(deps MonitorDeps, cfg MonitorConfig) *Monitor {
	if cfg.Retention <= 0 {
		cfg.Retention = dedup.DefaultRetention
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.EntityConcurrency <= 0 {
		cfg.EntityConcurrency = 2
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	pipeline := deps.Pipeline
	if pipeline == nil {
		pipeline = NewPipeline(PipelineDeps{Logger: deps.Logger})
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		entities: deps.Entities,
		mentions: deps.Mentions,
		source:   deps.Source,
		fetcher:  deps.Fetcher,
		notifier: deps.Notifier,
		rules:    deps.Rules,
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunCycle processes every active entity once. The dedup index lives only for
// this call and is rebuilt from persisted history. A failure for one entity is
// reported and does not stop the others.
func (m *Monitor) RunCycle(ctx context.Context, now time.Time) (CycleReport, error) {
	report := CycleReport{StartedAt: now}
	started := time.Now()
	if m.entities == nil {
		return report, nil
	}

	entities, err := m.entities.ActiveEntities(ctx)
	if err != nil {
		return report, fmt.Errorf("load entities: %w", err)
	}

	m.purge(ctx, now)

	cfg := m.cfg.Pipeline
	if m.rules != nil {
		// One rule snapshot per cycle.
		cfg.Rules = m.rules.Current()
	}
	index := dedup.NewIndex(m.cfg.Retention, dedup.WithClock(func() time.Time { return now }))

	report.Entities = make([]EntityReport, len(entities))
	var g errgroup.Group
	g.SetLimit(m.cfg.EntityConcurrency)
	for i, entity := range entities {
		g.Go(func() error {
			report.Entities[i] = m.runEntity(ctx, index, entity, cfg, now)
			return ctx.Err()
		})
	}
	interrupted := g.Wait()

	report.Duration = time.Since(started)
	if interrupted != nil {
		m.logger.Warn("monitor cycle interrupted",
			"entities", len(entities),
			"failed", report.Failed(),
			"duration", report.Duration,
		)
		return report, fmt.Errorf("monitor cycle: %w", interrupted)
	}
	m.logger.Info("monitor cycle finished",
		"entities", len(entities),
		"failed", report.Failed(),
		"duration", report.Duration,
	)
	return report, nil
}

// purge drops mentions past the data retention window. A failure is logged
// and the cycle goes on.
func (m *Monitor) purge(ctx context.Context, now time.Time) {
	if m.mentions == nil || m.cfg.DataRetention <= 0 {
		return
	}
	n, err := m.mentions.PurgeBefore(ctx, now.Add(-m.cfg.DataRetention))
	if err != nil {
		m.logger.Error("purge old mentions failed", "err", err)
		return
	}
	if n > 0 {
		m.logger.Info("old mentions purged", "count", n, "retention", m.cfg.DataRetention)
	}
}

func (m *Monitor) runEntity(ctx context.Context, index *dedup.Index, entity domain.MonitoredEntity, cfg PipelineConfig, now time.Time) EntityReport {
	rep := EntityReport{EntityID: entity.ID}
	logger := m.logger.With("entity", entity.ID)

	if m.mentions != nil {
		history, err := m.mentions.RecentHistory(ctx, entity.ID, now.Add(-m.cfg.Retention))
		if err != nil {
			rep.Err = fmt.Errorf("load history: %w", err)
			logger.Error("cannot rebuild dedup window", "err", err)
			return rep
		}
		seeded := index.Seed(entity.ID, history)
		logger.Debug("dedup window seeded", "records", seeded)
	}

	if m.source == nil {
		return rep
	}
	candidates, err := m.source.Collect(ctx, entity, now.Add(-m.cfg.Lookback))
	if err != nil {
		rep.Err = fmt.Errorf("collect: %w", err)
		logger.Error("collect candidates failed", "err", err)
		return rep
	}
	rep.Collected = len(candidates)

	rep.Fetched = m.fetchBodies(ctx, index, entity.ID, candidates)

	batch, err := m.pipeline.ProcessBatch(ctx, index, entity, candidates, cfg)
	if err != nil {
		rep.Err = err
		logger.Error("batch aborted", "err", err)
		return rep
	}
	rep.Batch = batch

	for _, mention := range batch.Forwarded {
		if m.mentions != nil {
			if err := m.mentions.SaveMention(ctx, mention); err != nil {
				logger.Error("persist mention failed", "mention", mention.ID, "err", err)
				continue
			}
		}
		rep.Saved++
	}

	// Over-cap mentions are not forwarded but must stay known, or the next
	// cycle would pick them up again.
	for _, mention := range batch.Dropped {
		if m.mentions == nil {
			break
		}
		if err := m.mentions.SaveMention(ctx, mention); err != nil {
			logger.Error("persist dropped mention failed", "mention", mention.ID, "err", err)
			continue
		}
		rep.Dropped++
	}

	if m.notifier != nil {
		for _, mention := range batch.AlertEligible() {
			if err := m.notifier.NotifyAlert(ctx, entity, mention); err != nil {
				logger.Warn("alert delivery failed", "mention", mention.ID, "err", err)
				continue
			}
			rep.Alerts++
		}
	}

	logger.Info("entity processed",
		"collected", rep.Collected,
		"fetched", rep.Fetched,
		"accepted", batch.Count(domain.OutcomeAccepted),
		"review", batch.Count(domain.OutcomeReview),
		"duplicates", batch.Count(domain.OutcomeDuplicate),
		"saved", rep.Saved,
		"dropped", rep.Dropped,
		"alerts", rep.Alerts,
	)
	return rep
}

// fetchBodies fills in article text for candidates that have none and are not
// already known. A fetch failure leaves the body empty.
func (m *Monitor) fetchBodies(ctx context.Context, index *dedup.Index, entityID string, candidates []domain.RawCandidate) int {
	if m.fetcher == nil {
		return 0
	}

	var (
		mu              sync.Mutex
		fetched, failed int
		g               errgroup.Group
	)
	g.SetLimit(m.cfg.FetchConcurrency)
	for i := range candidates {
		c := &candidates[i]
		if c.Body != "" || c.URL == "" || index.IsDuplicate(entityID, canonical.Normalize(*c)) {
			continue
		}
		g.Go(func() error {
			body, err := m.fetcher.Fetch(ctx, c.URL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return fmt.Errorf("fetch %s: %w", c.URL, err)
			}
			c.Body = body
			fetched++
			return nil
		})
	}
	// The candidates whose fetch failed keep an empty body.
	if err := g.Wait(); err != nil {
		m.logger.Debug("article fetches failed", "entity", entityID, "failed", failed, "first_err", err)
	}
	return fetched
}
