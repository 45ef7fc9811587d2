package domain

// Stage identifies one of the five fixed discovery stages.
type Stage string

const (
	StageProblemFraming        Stage = "problem-framing"
	StageMarketResearch        Stage = "market-research"
	StageTechnicalFeasibility  Stage = "technical-feasibility"
	StageRequirementsSynthesis Stage = "requirements-synthesis"
	StagePRDGeneration         Stage = "prd-generation"
)

// FirstStage is the stage every new session starts in.
const FirstStage = StageProblemFraming

// stageOrder is the canonical stage sequence.
var stageOrder = []Stage{
	StageProblemFraming,
	StageMarketResearch,
	StageTechnicalFeasibility,
	StageRequirementsSynthesis,
	StagePRDGeneration,
}

// stageSuccessors is the explicit transition table. A stage absent from the
// map has no successor: completing it completes the session.
var stageSuccessors = map[Stage]Stage{
	StageProblemFraming:        StageMarketResearch,
	StageMarketResearch:        StageTechnicalFeasibility,
	StageTechnicalFeasibility:  StageRequirementsSynthesis,
	StageRequirementsSynthesis: StagePRDGeneration,
}

// Stages returns the five stages in canonical order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Valid reports whether s is one of the five canonical stages.
func (s Stage) Valid() bool {
	for _, stage := range stageOrder {
		if s == stage {
			return true
		}
	}
	return false
}

// Next returns the successor stage in canonical order. The second return
// value is false when s is the last stage (or not a canonical stage).
func (s Stage) Next() (Stage, bool) {
	next, ok := stageSuccessors[s]
	return next, ok
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}
