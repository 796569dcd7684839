package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"MentionMonitor/internal/canonical"
	"MentionMonitor/internal/classify"
	"MentionMonitor/internal/dedup"
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/matching"
	"MentionMonitor/internal/names"
	"MentionMonitor/internal/ports"
)

var mentionNamespace = uuid.MustParse("9c0f6f5e-3f43-4d0b-9a7e-5b7c2f1d8e61")

// Thresholds is the acceptance policy applied to a match score.
type Thresholds struct {
	Reject float64 `yaml:"reject"`
	Accept float64 `yaml:"accept"`
	Alert  float64 `yaml:"alert"`
}

// PipelineConfig is passed explicitly into every batch; nothing is read from globals.
type PipelineConfig struct {
	Thresholds Thresholds
	// BatchCap limits forwarded accepted-or-review mentions per entity per batch.
	BatchCap        int
	Concurrency     int
	Weights         matching.Weights
	Profile         names.Profile
	Rules           *classify.Evaluator
	ExternalTimeout time.Duration
}

// DefaultPipelineConfig returns the standard policy.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Thresholds:      Thresholds{Reject: 0.3, Accept: 0.5, Alert: 0.75},
		BatchCap:        20,
		Concurrency:     4,
		Weights:         matching.DefaultWeights(),
		Profile:         names.ProfileFor("IN"),
		ExternalTimeout: classify.DefaultExternalTimeout,
	}
}

// Record is the single terminal record for one processed candidate.
type Record struct {
	CandidateID string
	URL         string
	Outcome     domain.Outcome
	Match       domain.MatchResult
	// Mention is set for ACCEPTED and REVIEW outcomes.
	Mention *domain.Mention
	Reason  string
}

// Diagnostic describes a per-candidate problem that did not stop the batch.
type Diagnostic struct {
	CandidateID string
	URL         string
	Err         error
}

// BatchResult is everything one ProcessBatch call produced.
type BatchResult struct {
	EntityID string
	// Records holds one entry per processed candidate, in batch order.
	Records []Record
	// Forwarded holds accepted and review mentions within the cap, newest first.
	Forwarded []domain.Mention
	// Dropped holds accepted and review mentions beyond the cap, in StateDropped.
	Dropped          []domain.Mention
	Diagnostics      []Diagnostic
	ExternalFailures int
	// Abandoned counts candidates never started because the caller cancelled.
	Abandoned int
}

// Count returns how many records ended in the given outcome.
func (r BatchResult) Count(o domain.Outcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == o {
			n++
		}
	}
	return n
}

// AlertEligible returns the forwarded mentions that should trigger notifications.
func (r BatchResult) AlertEligible() []domain.Mention {
	var out []domain.Mention
	for _, m := range r.Forwarded {
		if m.AlertEligible {
			out = append(out, m)
		}
	}
	return out
}

// PipelineDeps wires the driven adapters the pipeline may call.
type PipelineDeps struct {
	External ports.ExternalClassifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline turns an entity's raw candidates into terminal records.
type Pipeline struct {
	external ports.ExternalClassifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		external: deps.External,
		logger:   deps.Logger,
		now:      now,
	}
}

type survivor struct {
	slot int
	nc   domain.NormalizedCandidate
}

// ProcessBatch dedups candidates in batch order against index, then resolves and
// classifies the survivors concurrently. Only an invalid entity returns an error.
// Cancelling ctx abandons candidates that have not passed dedup yet.
func (p *Pipeline) ProcessBatch(
	ctx context.Context,
	index *dedup.Index,
	entity domain.MonitoredEntity,
	candidates []domain.RawCandidate,
	cfg PipelineConfig,
) (BatchResult, error) {
	if err := entity.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("process batch: %w", err)
	}
	if index == nil {
		index = dedup.NewIndex(dedup.DefaultRetention)
	}
	cfg = withDefaults(cfg)

	result := BatchResult{EntityID: entity.ID}
	records := make([]Record, 0, len(candidates))
	var survivors []survivor

	for i, raw := range candidates {
		if ctx.Err() != nil {
			result.Abandoned = len(candidates) - i
			p.debug("batch abandoned", "entity", entity.ID, "abandoned", result.Abandoned)
			break
		}

		raw, err := checkCandidate(raw)
		if err != nil {
			records = append(records, Record{URL: raw.URL, Outcome: domain.OutcomeMalformed, Reason: err.Error()})
			result.Diagnostics = append(result.Diagnostics, Diagnostic{URL: raw.URL, Err: err})
			p.warn("skipping malformed candidate", "entity", entity.ID, "url", raw.URL, "err", err)
			continue
		}

		nc := canonical.Normalize(raw)
		if index.CheckAndRecord(entity.ID, nc) {
			records = append(records, Record{CandidateID: nc.ID, URL: raw.URL, Outcome: domain.OutcomeDuplicate})
			continue
		}
		records = append(records, Record{CandidateID: nc.ID, URL: raw.URL})
		survivors = append(survivors, survivor{slot: len(records) - 1, nc: nc})
	}

	resolver := matching.NewResolver(entity, cfg.Profile, cfg.Weights)
	classifier := classify.NewClassifier(cfg.Rules, p.external, cfg.ExternalTimeout)
	externalErrs := make([]error, len(records))
	createdAt := p.now().UTC()

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for _, s := range survivors {
		g.Go(func() error {
			rec, extErr := p.evaluate(ctx, entity, s.nc, resolver, classifier, cfg, createdAt)
			records[s.slot] = rec
			externalErrs[s.slot] = extErr
			// Surfaced through Wait; the candidate already fell back to the heuristic.
			return extErr
		})
	}
	firstExtErr := g.Wait()

	var mentions []domain.Mention
	for i, rec := range records {
		if err := externalErrs[i]; err != nil {
			result.ExternalFailures++
			result.Diagnostics = append(result.Diagnostics, Diagnostic{CandidateID: rec.CandidateID, URL: rec.URL, Err: err})
		}
		if rec.Mention != nil {
			mentions = append(mentions, *rec.Mention)
		}
	}
	if firstExtErr != nil {
		p.warn("external classifier failed, using heuristic",
			"entity", entity.ID,
			"failures", result.ExternalFailures,
			"err", firstExtErr,
		)
	}
	result.Records = records
	result.Forwarded, result.Dropped = applyCap(mentions, cfg.BatchCap)

	p.debug("batch processed",
		"entity", entity.ID,
		"candidates", len(candidates),
		"forms", resolver.Forms(),
		"duplicates", result.Count(domain.OutcomeDuplicate),
		"accepted", result.Count(domain.OutcomeAccepted),
		"review", result.Count(domain.OutcomeReview),
		"forwarded", len(result.Forwarded),
		"dropped", len(result.Dropped),
	)
	return result, nil
}

func (p *Pipeline) evaluate(
	ctx context.Context,
	entity domain.MonitoredEntity,
	nc domain.NormalizedCandidate,
	resolver *matching.Resolver,
	classifier *classify.Classifier,
	cfg PipelineConfig,
	createdAt time.Time,
) (Record, error) {
	rec := Record{CandidateID: nc.ID, URL: nc.Raw.URL}

	res := resolver.Resolve(nc)
	rec.Match = res.Result
	switch {
	case res.Result.Vetoed:
		rec.Outcome = domain.OutcomeVetoed
		rec.Reason = "negative term: " + res.Signals.NegativeTerm
		return rec, nil
	case !res.Result.Matched:
		rec.Outcome = domain.OutcomeNoMatch
		return rec, nil
	case res.Result.Confidence < cfg.Thresholds.Reject:
		rec.Outcome = domain.OutcomeLowConfidence
		return rec, nil
	}

	out := classifier.Classify(ctx, domain.ClassificationInput{
		Key:        classificationKey(nc),
		Title:      nc.Raw.Title,
		Snippet:    nc.Raw.Snippet,
		Body:       nc.Raw.Body,
		TrustScore: nc.Raw.TrustScore,
	})

	state := domain.StateReview
	rec.Outcome = domain.OutcomeReview
	if res.Result.Confidence >= cfg.Thresholds.Accept {
		state = domain.StateAccepted
		rec.Outcome = domain.OutcomeAccepted
	}

	rec.Mention = &domain.Mention{
		ID:             MentionID(entity.ID, nc.ID),
		EntityID:       entity.ID,
		CandidateID:    nc.ID,
		Candidate:      nc,
		Match:          res.Result,
		Classification: out.Result,
		State:          state,
		AlertEligible: state == domain.StateAccepted &&
			res.Result.Confidence >= cfg.Thresholds.Alert &&
			out.Result.Severity == domain.SeverityHigh,
		CreatedAt: createdAt,
	}
	return rec, out.ExternalErr
}

// MentionID is deterministic per (entity, candidate) pair.
func MentionID(entityID, candidateID string) string {
	return uuid.NewSHA1(mentionNamespace, []byte(entityID+"|"+candidateID)).String()
}

// checkCandidate resolves a late timestamp and rejects candidates the
// pipeline cannot reason about.
func checkCandidate(raw domain.RawCandidate) (domain.RawCandidate, error) {
	if strings.TrimSpace(raw.URL) == "" && strings.TrimSpace(raw.Body) == "" {
		return raw, fmt.Errorf("%w: no url and no body", domain.ErrMalformedCandidate)
	}
	if strings.TrimSpace(raw.Title+raw.Snippet+raw.Body) == "" {
		return raw, fmt.Errorf("%w: no text", domain.ErrMalformedCandidate)
	}
	if raw.PublishedAt.IsZero() && strings.TrimSpace(raw.PublishedRaw) != "" {
		ts, ok := canonical.ParsePublished(raw.PublishedRaw)
		if !ok {
			return raw, fmt.Errorf("%w: unparseable timestamp %q", domain.ErrMalformedCandidate, raw.PublishedRaw)
		}
		raw.PublishedAt = ts
	}
	return raw, nil
}

func classificationKey(nc domain.NormalizedCandidate) string {
	if nc.ContentHash != "" {
		return "hash:" + nc.ContentHash
	}
	if nc.CanonicalURL != "" {
		return "url:" + nc.CanonicalURL
	}
	return ""
}

// applyCap keeps the newest cap mentions; undated ones count as oldest. The
// rest come back marked dropped.
func applyCap(mentions []domain.Mention, limit int) (forwarded, dropped []domain.Mention) {
	sorted := append([]domain.Mention(nil), mentions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Candidate.Raw.PublishedAt.After(sorted[j].Candidate.Raw.PublishedAt)
	})
	if limit <= 0 || len(sorted) <= limit {
		return sorted, nil
	}
	forwarded, dropped = sorted[:limit], sorted[limit:]
	for i := range dropped {
		dropped[i].State = domain.StateDropped
		dropped[i].AlertEligible = false
	}
	return forwarded, dropped
}

func withDefaults(cfg PipelineConfig) PipelineConfig {
	def := DefaultPipelineConfig()
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = def.Thresholds
	}
	if cfg.BatchCap <= 0 {
		cfg.BatchCap = def.BatchCap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Weights == (matching.Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.Profile.Code == "" {
		cfg.Profile = def.Profile
	}
	if cfg.Rules == nil {
		cfg.Rules = classify.NewEvaluator(classify.DefaultRules())
	}
	return cfg
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, args...)
}
