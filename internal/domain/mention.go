package domain

import (
	"fmt"
	"strings"
	"time"
)

// Region identifies the text region a surface form was found in.
type Region string

const (
	RegionTitle   Region = "title"
	RegionSnippet Region = "snippet"
	RegionBody    Region = "body"
)

// MatchedForm records one surface form hit.
type MatchedForm struct {
	Form   string
	Region Region
	Span   string
}

// MatchResult is the outcome of resolving one candidate against one entity.
// Score 0 with Vetoed=true is distinct from "no surface form found".
type MatchResult struct {
	Matched    bool
	Forms      []MatchedForm
	Confidence float64
	Vetoed     bool
}

type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type Category string

const (
	CategoryRegulatoryEnforcement Category = "REGULATORY_ENFORCEMENT"
	CategoryLegalCourt            Category = "LEGAL_COURT"
	CategoryLitigation            Category = "LITIGATION"
	CategoryCorporateGovernance   Category = "CORPORATE_GOVERNANCE"
	CategoryFinancialCorporate    Category = "FINANCIAL_CORPORATE"
	CategoryBoardAppointment      Category = "GOVERNANCE_BOARD_APPOINTMENT"
	CategoryESGSocialPolitical    Category = "ESG_SOCIAL_POLITICAL"
	CategoryAwardsRecognition     Category = "AWARDS_RECOGNITION"
	CategoryOther                 Category = "OTHER"
)

// Categories lists the fixed category enumeration.
var Categories = []Category{
	CategoryRegulatoryEnforcement,
	CategoryLegalCourt,
	CategoryLitigation,
	CategoryCorporateGovernance,
	CategoryFinancialCorporate,
	CategoryBoardAppointment,
	CategoryESGSocialPolitical,
	CategoryAwardsRecognition,
	CategoryOther,
}

// ParseSentiment accepts any letter case.
func ParseSentiment(v string) (Sentiment, error) {
	s := Sentiment(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return s, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", v)
}

// ParseSeverity accepts any letter case.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return s, nil
	}
	return "", fmt.Errorf("unknown severity %q", v)
}

// ParseCategory accepts any letter case.
func ParseCategory(v string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(v)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", v)
}

// Provenance tags where a classification came from.
type Provenance string

const (
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceExternal  Provenance = "external"
)

// ClassificationResult is derived purely from text and source trust.
type ClassificationResult struct {
	Sentiment  Sentiment
	Severity   Severity
	Category   Category
	Summary    []string
	Rationale  string
	Provenance Provenance
}

// ClassificationInput is what classifiers see of a candidate.
type ClassificationInput struct {
	Key        string
	Title      string
	Snippet    string
	Body       string
	TrustScore *int
}

// Text concatenates title, snippet and body.
func (in ClassificationInput) Text() string {
	return strings.TrimSpace(in.Title + "\n" + in.Snippet + "\n" + in.Body)
}

// AcceptanceState is the policy outcome for a matched candidate.
type AcceptanceState string

const (
	StateAccepted AcceptanceState = "accepted"
	StateReview   AcceptanceState = "review"
	StateRejected AcceptanceState = "rejected"
	// StateDropped marks a mention cut by the batch cap. It is kept only so
	// later cycles recognise the article; it is never forwarded or alerted.
	StateDropped AcceptanceState = "dropped"
)

// Mention is the terminal artifact for an accepted or review candidate.
// The pipeline never mutates it after creation.
type Mention struct {
	ID             string
	EntityID       string
	CandidateID    string
	Candidate      NormalizedCandidate
	Match          MatchResult
	Classification ClassificationResult
	State          AcceptanceState
	AlertEligible  bool
	CreatedAt      time.Time
}

// History is the dedup view of a persisted mention.
func (m Mention) History() HistoryRecord {
	return HistoryRecord{
		URL:          m.Candidate.Raw.URL,
		CanonicalURL: m.Candidate.CanonicalURL,
		ContentHash:  m.Candidate.ContentHash,
		Title:        m.Candidate.Raw.Title,
		Source:       m.Candidate.Raw.Source,
		PublishedAt:  m.Candidate.Raw.PublishedAt,
		SeenAt:       m.CreatedAt,
	}
}

// Outcome is the terminal state of one candidate in a batch.
type Outcome string

const (
	OutcomeMalformed     Outcome = "REJECTED_MALFORMED"
	OutcomeDuplicate     Outcome = "REJECTED_DUPLICATE"
	OutcomeNoMatch       Outcome = "REJECTED_NO_MATCH"
	OutcomeVetoed        Outcome = "REJECTED_VETOED"
	OutcomeLowConfidence Outcome = "REJECTED_LOW_CONFIDENCE"
	OutcomeReview        Outcome = "REVIEW"
	OutcomeAccepted      Outcome = "ACCEPTED"
)
