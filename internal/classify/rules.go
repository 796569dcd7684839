// Package classify assigns sentiment, severity and category to mention text
// from ordered keyword rule tables, optionally overridden by an external model.
package classify

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"MentionMonitor/internal/domain"
)

// SeverityRule fires when any keyword is present. Rules are evaluated in order;
// the first one that fires decides sentiment and severity.
type SeverityRule struct {
	Name      string           `yaml:"name"`
	Sentiment domain.Sentiment `yaml:"sentiment"`
	Severity  domain.Severity  `yaml:"severity"`
	Keywords  []string         `yaml:"keywords"`
}

// CategoryRule assigns Category when any keyword is present.
type CategoryRule struct {
	Category domain.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Rules is the externalized rule table.
type Rules struct {
	Severity   []SeverityRule `yaml:"severity"`
	Categories []CategoryRule `yaml:"categories"`
	// TrustFloor downgrades HIGH to MEDIUM when a known source trust is below it.
	TrustFloor       int `yaml:"trustFloor"`
	SummarySentences int `yaml:"summarySentences"`
}

const (
	DefaultTrustFloor       = 50
	DefaultSummarySentences = 3
)

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	return Rules{
		Severity: []SeverityRule{
			{
				Name:      "negative-high",
				Sentiment: domain.SentimentNegative,
				Severity:  domain.SeverityHigh,
				Keywords: []string{
					"arrested", "arrest", "chargesheet", "raid", "raided", "fraud", "money laundering",
					"ED", "CBI", "conviction", "convicted", "court order", "scam", "bankruptcy",
					"default", "sanction", "banned", "SEBI action", "enforcement directorate",
					"central bureau", "sentenced", "jail", "prison",
				},
			},
			{
				Name:      "negative-medium",
				Sentiment: domain.SentimentNegative,
				Severity:  domain.SeverityMedium,
				Keywords: []string{
					"investigation", "notice", "summons", "PIL", "lawsuit", "dispute",
					"allegation", "allegations", "complaint", "inquiry", "probe", "scrutiny",
				},
			},
			{
				Name:      "positive",
				Sentiment: domain.SentimentPositive,
				Severity:  domain.SeverityLow,
				Keywords: []string{
					"appointed", "joins board", "award", "honoured", "honored", "recognized",
					"milestone", "expansion", "philanthropic", "achievement", "success",
					"excellence", "commendation",
				},
			},
		},
		Categories: []CategoryRule{
			{domain.CategoryRegulatoryEnforcement, []string{
				"SEBI", "RBI", "ED", "CBI", "SFIO", "MCA", "enforcement directorate", "regulatory",
				"regulator", "compliance", "violation", "penalty", "show-cause notice", "enforcement action",
			}},
			{domain.CategoryLegalCourt, []string{
				"court", "Supreme Court", "High Court", "judge", "judgment", "legal", "petition",
				"writ petition", "hearing", "verdict", "bail",
			}},
			{domain.CategoryLitigation, []string{
				"NCLT", "NCLAT", "civil suit", "criminal case", "FIR", "charge sheet", "lawsuit", "litigation",
			}},
			{domain.CategoryCorporateGovernance, []string{
				"board dispute", "related party", "governance issue", "conflict of interest",
				"governance lapse", "whistleblower",
			}},
			{domain.CategoryFinancialCorporate, []string{
				"financial", "revenue", "profit", "loss", "earnings", "quarterly", "annual results",
				"business", "IPO", "acquisition", "merger",
			}},
			{domain.CategoryBoardAppointment, []string{
				"board", "director", "governance", "appointment", "appointed", "resignation",
				"independent director", "committee", "joins board",
			}},
			{domain.CategoryESGSocialPolitical, []string{
				"controversy", "protest", "statement", "criticism", "allegation", "ESG",
				"environmental", "political", "CSR",
			}},
			{domain.CategoryAwardsRecognition, []string{
				"award", "awarded", "honoured", "honored", "recognized", "recognition", "felicitated",
			}},
		},
		TrustFloor:       DefaultTrustFloor,
		SummarySentences: DefaultSummarySentences,
	}
}

// LoadRules reads a YAML rule table. Missing scalar fields fall back to defaults;
// missing rule lists keep the built-in lists.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}

	rules := DefaultRules()
	if len(loaded.Severity) > 0 {
		rules.Severity = loaded.Severity
	}
	if len(loaded.Categories) > 0 {
		rules.Categories = loaded.Categories
	}
	if loaded.TrustFloor > 0 {
		rules.TrustFloor = loaded.TrustFloor
	}
	if loaded.SummarySentences > 0 {
		rules.SummarySentences = loaded.SummarySentences
	}

	if err := rules.Normalize(); err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// Normalize canonicalizes enum spelling and rejects unknown values, so a typo
// in a rules file fails at load time.
func (r *Rules) Normalize() error {
	var errs []error
	for i := range r.Severity {
		rule := &r.Severity[i]
		sentiment, err := domain.ParseSentiment(string(rule.Sentiment))
		if err != nil {
			errs = append(errs, fmt.Errorf("severity rule %d: %w", i, err))
		}
		severity, err := domain.ParseSeverity(string(rule.Severity))
		if err != nil {
			errs = append(errs, fmt.Errorf("severity rule %d: %w", i, err))
		}
		rule.Sentiment, rule.Severity = sentiment, severity
		if len(rule.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("severity rule %d has no keywords", i))
		}
	}
	for i := range r.Categories {
		category, err := domain.ParseCategory(string(r.Categories[i].Category))
		if err != nil {
			errs = append(errs, fmt.Errorf("category rule %d: %w", i, err))
		}
		r.Categories[i].Category = category
	}
	return errors.Join(errs...)
}
