package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/domain"
)

func TestValidateStageCompletion_EmptyData(t *testing.T) {
	report, err := ValidateStageCompletion(domain.StageProblemFraming, nil)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.Zero(t, report.Score)
	assert.Zero(t, report.CompletedFields)
	assert.Equal(t, 4, report.TotalFields)
	assert.Len(t, report.MissingFields, 4)
}

func TestValidateStageCompletion_FullData(t *testing.T) {
	report, err := ValidateStageCompletion(domain.StageProblemFraming, map[string]any{
		"problemStatement": "manual invoice processing wastes hours",
		"targetAudience":   "small accounting firms",
		"successCriteria":  []any{"time to invoice under 2 minutes"},
		"constraints":      []any{"must integrate with existing ERP"},
	})
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, 4, report.CompletedFields)
	assert.Empty(t, report.MissingFields)
}

func TestValidateStageCompletion_EmptyValuesDoNotCount(t *testing.T) {
	report, err := ValidateStageCompletion(domain.StageProblemFraming, map[string]any{
		"problemStatement": "",
		"targetAudience":   "small accounting firms",
		"successCriteria":  []any{},
		"constraints":      nil,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.CompletedFields)
	assert.Equal(t, 25, report.Score)
	assert.Contains(t, report.MissingFields, "problemStatement")
	assert.Contains(t, report.MissingFields, "successCriteria")
	assert.Contains(t, report.MissingFields, "constraints")
}

// Adding a previously-missing required field never decreases the score.
func TestValidateStageCompletion_Monotonic(t *testing.T) {
	data := map[string]any{}
	previous := 0

	fields := map[string]any{
		"problemStatement": "statement",
		"targetAudience":   "audience",
		"successCriteria":  []any{"criterion"},
		"constraints":      []any{"constraint"},
	}
	for field, value := range fields {
		data[field] = value
		report, err := ValidateStageCompletion(domain.StageProblemFraming, data)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.Score, previous, "adding %s must not lower the score", field)
		previous = report.Score
	}
	assert.Equal(t, 100, previous)
}

func TestValidateStageCompletion_UnknownStage(t *testing.T) {
	_, err := ValidateStageCompletion(domain.Stage("deployment"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStage)
}

func TestRequirementFor_AllStagesCovered(t *testing.T) {
	for _, stage := range domain.Stages() {
		req, err := RequirementFor(stage)
		require.NoError(t, err, "stage %s", stage)
		assert.NotEmpty(t, req.RequiredFields, "stage %s", stage)
		assert.Greater(t, req.MinimumScore, 0, "stage %s", stage)
	}
}

func TestFieldPresent(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		present bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty list", []any{}, false},
		{"list", []any{"a"}, true},
		{"empty object", map[string]any{}, false},
		{"object", map[string]any{"k": "v"}, true},
		{"number", 3.0, true},
		{"bool", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.present, FieldPresent(tt.value))
		})
	}
}
