package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStages_CanonicalOrder(t *testing.T) {
	assert.Equal(t, []Stage{
		StageProblemFraming,
		StageMarketResearch,
		StageTechnicalFeasibility,
		StageRequirementsSynthesis,
		StagePRDGeneration,
	}, Stages())
}

func TestStage_Next(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		next     Stage
		hasNext  bool
	}{
		{"problem framing", StageProblemFraming, StageMarketResearch, true},
		{"market research", StageMarketResearch, StageTechnicalFeasibility, true},
		{"technical feasibility", StageTechnicalFeasibility, StageRequirementsSynthesis, true},
		{"requirements synthesis", StageRequirementsSynthesis, StagePRDGeneration, true},
		{"prd generation is last", StagePRDGeneration, "", false},
		{"unknown stage", Stage("bogus"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := tt.stage.Next()
			assert.Equal(t, tt.hasNext, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestStage_Valid(t *testing.T) {
	for _, stage := range Stages() {
		assert.True(t, stage.Valid(), "stage %s should be valid", stage)
	}
	assert.False(t, Stage("deployment").Valid())
	assert.False(t, Stage("").Valid())
}
