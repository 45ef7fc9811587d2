package schema

import (
	_ "embed"
	"fmt"
	"math"
	"sync"

	"gopkg.in/yaml.v3"

	"compass/domain"
)

//go:embed requirements.yaml
var requirementsYAML []byte

// StageRequirement is the fixed completion policy for one stage.
type StageRequirement struct {
	MinimumScore   int      `yaml:"minimumScore"`
	RequiredFields []string `yaml:"requiredFields"`
}

type requirementsPolicy struct {
	Stages map[domain.Stage]StageRequirement `yaml:"stages"`
}

var (
	policyOnce sync.Once
	policyErr  error
	policy     requirementsPolicy
)

func loadPolicy() error {
	policyOnce.Do(func() {
		if err := yaml.Unmarshal(requirementsYAML, &policy); err != nil {
			policyErr = fmt.Errorf("failed to parse stage requirements policy: %w", err)
			return
		}
		for _, stage := range domain.Stages() {
			if _, ok := policy.Stages[stage]; !ok {
				policyErr = fmt.Errorf("stage requirements policy is missing stage %s", stage)
				return
			}
		}
	})
	return policyErr
}

// RequirementFor returns the completion policy for a stage.
func RequirementFor(stage domain.Stage) (StageRequirement, error) {
	if !stage.Valid() {
		return StageRequirement{}, fmt.Errorf("%w: %s", domain.ErrInvalidStage, stage)
	}
	if err := loadPolicy(); err != nil {
		return StageRequirement{}, err
	}
	return policy.Stages[stage], nil
}

// CompletionReport is the result of gating a stage payload against its
// requirement policy.
type CompletionReport struct {
	Valid           bool     `json:"valid"`
	Score           int      `json:"score"`
	CompletedFields int      `json:"completedFields"`
	TotalFields     int      `json:"totalFields"`
	MissingFields   []string `json:"missingFields"`
}

// ValidateStageCompletion scores a stage payload against the stage's
// requirement policy. A field counts as present when it is a non-empty
// string, a non-empty list, or a non-empty object. The score is the rounded
// percentage of required fields present; the report is valid when the score
// meets the policy minimum.
//
// The same field-presence rule feeds the quality engine's
// requirements-coverage criterion, so completion gates and document scoring
// never disagree about what counts as filled in.
func ValidateStageCompletion(stage domain.Stage, data map[string]any) (CompletionReport, error) {
	req, err := RequirementFor(stage)
	if err != nil {
		return CompletionReport{}, err
	}

	report := CompletionReport{
		TotalFields:   len(req.RequiredFields),
		MissingFields: []string{},
	}
	for _, field := range req.RequiredFields {
		if FieldPresent(data[field]) {
			report.CompletedFields++
		} else {
			report.MissingFields = append(report.MissingFields, field)
		}
	}
	if report.TotalFields > 0 {
		report.Score = int(math.Round(float64(report.CompletedFields) / float64(report.TotalFields) * 100))
	}
	report.Valid = report.Score >= req.MinimumScore
	return report, nil
}

// FieldPresent reports whether a payload value counts as filled in.
func FieldPresent(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case map[string]string:
		return len(v) > 0
	default:
		// Numbers, booleans and typed structs count as present.
		return true
	}
}
