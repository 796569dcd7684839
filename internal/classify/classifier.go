package classify

import (
	"context"
	"fmt"
	"time"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

// DefaultExternalTimeout bounds one external-model call.
const DefaultExternalTimeout = 20 * time.Second

// Outcome is a classification plus the external-model failure, if any.
// A non-nil ExternalErr means Result is the heuristic fallback.
type Outcome struct {
	Result      domain.ClassificationResult
	ExternalErr error
}

// Classifier runs the heuristic and, when configured, lets an external model
// override it end-to-end.
type Classifier struct {
	heuristic *Evaluator
	external  ports.ExternalClassifier
	timeout   time.Duration
}

// NewClassifier builds a classifier. external may be nil.
func NewClassifier(heuristic *Evaluator, external ports.ExternalClassifier, timeout time.Duration) *Classifier {
	if heuristic == nil {
		heuristic = NewEvaluator(DefaultRules())
	}
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &Classifier{heuristic: heuristic, external: external, timeout: timeout}
}

// Classify never returns an error: external failures degrade to the heuristic.
func (c *Classifier) Classify(ctx context.Context, in domain.ClassificationInput) Outcome {
	base := c.heuristic.Classify(in)
	if c.external == nil {
		return Outcome{Result: base}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ext, err := c.external.Classify(callCtx, in)
	if err != nil {
		return Outcome{Result: base, ExternalErr: fmt.Errorf("external classify: %w", err)}
	}
	if err := validate(&ext); err != nil {
		return Outcome{Result: base, ExternalErr: fmt.Errorf("external classify: %w", err)}
	}

	ext.Provenance = domain.ProvenanceExternal
	if len(ext.Summary) == 0 {
		ext.Summary = base.Summary
	}
	if ext.Rationale == "" {
		ext.Rationale = rationale(ext)
	}
	return Outcome{Result: ext}
}

func validate(r *domain.ClassificationResult) error {
	var err error
	if r.Sentiment, err = domain.ParseSentiment(string(r.Sentiment)); err != nil {
		return err
	}
	if r.Severity, err = domain.ParseSeverity(string(r.Severity)); err != nil {
		return err
	}
	if r.Category, err = domain.ParseCategory(string(r.Category)); err != nil {
		return err
	}
	return nil
}
