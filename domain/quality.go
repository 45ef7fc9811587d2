package domain

// Criterion names one of the five weighted quality criteria.
type Criterion string

const (
	CriterionCompleteness         Criterion = "completeness"
	CriterionClarity              Criterion = "clarity"
	CriterionTechnicalFeasibility Criterion = "technical-feasibility"
	CriterionMarketValidation     Criterion = "market-validation"
	CriterionRequirementsCoverage Criterion = "requirements-coverage"
)

// Criteria returns the five criteria in a fixed order. Scoring and gap
// generation iterate this slice so output ordering is deterministic.
func Criteria() []Criterion {
	return []Criterion{
		CriterionCompleteness,
		CriterionClarity,
		CriterionTechnicalFeasibility,
		CriterionMarketValidation,
		CriterionRequirementsCoverage,
	}
}

// ConfidenceLevel grades how much the overall score can be trusted, derived
// from the spread of the five sub-scores.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Readiness thresholds on the overall score. Exact boundaries: 75 is ready
// for development, 74 is not.
const (
	ReadyForDevelopmentScore    = 75
	ReadyForTaskGenerationScore = 60
)

// QualityAssessment is the derived scoring of a generated document. It is
// recomputed on demand and never partially updated.
type QualityAssessment struct {
	OverallScore           int               `json:"overallScore"`
	Criteria               map[Criterion]int `json:"criteria"`
	Gaps                   []string          `json:"gaps"`
	Recommendations        []string          `json:"recommendations"`
	ReadyForDevelopment    bool              `json:"readyForDevelopment"`
	ReadyForTaskGeneration bool              `json:"readyForTaskGeneration"`
	Confidence             ConfidenceLevel   `json:"confidence"`
}

// Readiness derives the two readiness booleans from an overall score.
func Readiness(overall int) (development, taskGeneration bool) {
	return overall >= ReadyForDevelopmentScore, overall >= ReadyForTaskGenerationScore
}
