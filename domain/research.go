package domain

import (
	"encoding/json"
	"time"
)

// Research bucket names. Queries land in exactly one bucket; unknown bucket
// names are ignored by the state machine (research is supplementary).
const (
	BucketMarketAnalysis      = "market-analysis"
	BucketTechnicalValidation = "technical-validation"
	BucketCompetitiveAnalysis = "competitive-analysis"
	BucketGeneral             = "general"
)

// ResearchQuery is an immutable record of one research action. Records are
// appended to a bucket and never mutated or removed.
type ResearchQuery struct {
	Query     string          `json:"query"`
	Provider  string          `json:"provider"`
	QueryType string          `json:"queryType"`
	Timestamp time.Time       `json:"timestamp"`
	Success   bool            `json:"success"`
	Results   json.RawMessage `json:"results,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ResearchData holds the four named research buckets of a session.
type ResearchData struct {
	MarketAnalysis      []ResearchQuery `json:"marketAnalysis,omitempty"`
	TechnicalValidation []ResearchQuery `json:"technicalValidation,omitempty"`
	CompetitiveAnalysis []ResearchQuery `json:"competitiveAnalysis,omitempty"`
	General             []ResearchQuery `json:"general,omitempty"`
}

// Append adds a query to the named bucket. It returns false for an unknown
// bucket name, leaving the data untouched.
func (r *ResearchData) Append(bucket string, q ResearchQuery) bool {
	switch bucket {
	case BucketMarketAnalysis:
		r.MarketAnalysis = append(r.MarketAnalysis, q)
	case BucketTechnicalValidation:
		r.TechnicalValidation = append(r.TechnicalValidation, q)
	case BucketCompetitiveAnalysis:
		r.CompetitiveAnalysis = append(r.CompetitiveAnalysis, q)
	case BucketGeneral:
		r.General = append(r.General, q)
	default:
		return false
	}
	return true
}

// Bucket returns the queries in the named bucket.
func (r *ResearchData) Bucket(bucket string) []ResearchQuery {
	switch bucket {
	case BucketMarketAnalysis:
		return r.MarketAnalysis
	case BucketTechnicalValidation:
		return r.TechnicalValidation
	case BucketCompetitiveAnalysis:
		return r.CompetitiveAnalysis
	case BucketGeneral:
		return r.General
	default:
		return nil
	}
}

// Total returns the number of recorded queries across all buckets.
func (r *ResearchData) Total() int {
	return len(r.MarketAnalysis) + len(r.TechnicalValidation) + len(r.CompetitiveAnalysis) + len(r.General)
}

// Buckets returns the four valid bucket names in a fixed order.
func Buckets() []string {
	return []string{
		BucketMarketAnalysis,
		BucketTechnicalValidation,
		BucketCompetitiveAnalysis,
		BucketGeneral,
	}
}
