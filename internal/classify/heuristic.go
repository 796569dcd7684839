package classify

import (
	"regexp"
	"strings"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/matching"
)

type compiledSeverity struct {
	rule     SeverityRule
	keywords matching.KeywordSet
}

type compiledCategory struct {
	category domain.Category
	keywords matching.KeywordSet
}

// Evaluator is a compiled, immutable rule table. Safe for concurrent use.
type Evaluator struct {
	rules      Rules
	severity   []compiledSeverity
	categories []compiledCategory
}

// NewEvaluator compiles the keyword sets of every rule.
func NewEvaluator(r Rules) *Evaluator {
	if r.TrustFloor <= 0 {
		r.TrustFloor = DefaultTrustFloor
	}
	if r.SummarySentences <= 0 {
		r.SummarySentences = DefaultSummarySentences
	}
	e := &Evaluator{rules: r}
	for _, rule := range r.Severity {
		e.severity = append(e.severity, compiledSeverity{rule: rule, keywords: matching.NewKeywordSet(rule.Keywords)})
	}
	for _, rule := range r.Categories {
		e.categories = append(e.categories, compiledCategory{category: rule.Category, keywords: matching.NewKeywordSet(rule.Keywords)})
	}
	return e
}

// Rules returns the table the evaluator was compiled from.
func (e *Evaluator) Rules() Rules {
	return e.rules
}

// Classify is the heuristic classifier. It has no side effects.
func (e *Evaluator) Classify(in domain.ClassificationInput) domain.ClassificationResult {
	text := matching.NewText(in.Text())

	res := domain.ClassificationResult{
		Sentiment:  domain.SentimentNeutral,
		Severity:   domain.SeverityLow,
		Category:   domain.CategoryOther,
		Provenance: domain.ProvenanceHeuristic,
	}

	var fired []string
	var winner *SeverityRule
	positive, negative := false, false
	for i := range e.severity {
		hits := e.severity[i].keywords.Find(text)
		if len(hits) == 0 {
			continue
		}
		rule := &e.severity[i].rule
		fired = append(fired, hits...)
		if winner == nil {
			winner = rule
		}
		switch rule.Sentiment {
		case domain.SentimentPositive:
			positive = true
		case domain.SentimentNegative:
			negative = true
		}
	}
	if winner != nil {
		res.Sentiment = winner.Sentiment
		res.Severity = winner.Severity
		if positive && negative {
			res.Sentiment = domain.SentimentMixed
		}
	}

	if res.Severity == domain.SeverityHigh && in.TrustScore != nil && *in.TrustScore < e.rules.TrustFloor {
		res.Severity = domain.SeverityMedium
	}

	for _, c := range e.categories {
		if hits := c.keywords.Find(text); len(hits) > 0 {
			res.Category = c.category
			fired = append(fired, hits...)
			break
		}
	}

	res.Summary = summarize(in, fired, e.rules.SummarySentences)
	res.Rationale = rationale(res)
	return res
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)|\n+`)

// summarize picks up to n sentences that contain a fired keyword, falling back
// to the title.
func summarize(in domain.ClassificationInput, keywords []string, n int) []string {
	kw := matching.NewKeywordSet(keywords)

	var out []string
	seen := map[string]struct{}{}
	for _, sentence := range splitSentences(in.Text()) {
		if len(out) == n {
			break
		}
		if _, ok := seen[sentence]; ok {
			continue
		}
		if kw.Len() > 0 && kw.Any(matching.NewText(sentence)) {
			seen[sentence] = struct{}{}
			out = append(out, sentence)
		}
	}
	if len(out) == 0 {
		if title := strings.TrimSpace(in.Title); title != "" {
			return []string{title}
		}
		if sentences := splitSentences(in.Text()); len(sentences) > 0 {
			return sentences[:1]
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range sentenceEnd.Split(text, -1) {
		part = strings.Join(strings.Fields(part), " ")
		if len(part) > 1 {
			out = append(out, part)
		}
	}
	return out
}

func rationale(r domain.ClassificationResult) string {
	switch {
	case r.Severity == domain.SeverityHigh && r.Category == domain.CategoryRegulatoryEnforcement:
		return "High severity regulatory action requiring immediate board attention and compliance review."
	case r.Severity == domain.SeverityHigh && (r.Category == domain.CategoryLegalCourt || r.Category == domain.CategoryLitigation):
		return "High severity legal matter requiring immediate legal counsel and board notification."
	case r.Severity == domain.SeverityHigh:
		return "High severity item requiring immediate attention."
	case r.Severity == domain.SeverityMedium:
		return "Medium severity item that may require monitoring and periodic board updates."
	case r.Sentiment == domain.SentimentPositive:
		return "Positive news suitable for stakeholder communication."
	case r.Sentiment == domain.SentimentMixed:
		return "Mixed coverage; review before external communication."
	}
	return "Neutral or low-severity mention."
}
