package quality

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed heuristics.yaml
var heuristicsYAML []byte

// Heuristics is the tunable part of the scoring policy. The criterion
// weights, the readiness thresholds and the monotonicity/determinism
// contracts are fixed; these knobs are not.
type Heuristics struct {
	Sections       []string `yaml:"sections"`
	MinimumWords   int      `yaml:"minimumWords"`
	NearEmptyWords int      `yaml:"nearEmptyWords"`
	GapFloor       int      `yaml:"gapFloor"`
	Clarity        struct {
		ActionVerbs []string `yaml:"actionVerbs"`
	} `yaml:"clarity"`
	Technical struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"technical"`
	Market struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"market"`
	Coverage struct {
		TargetFunctional    int `yaml:"targetFunctional"`
		TargetNonFunctional int `yaml:"targetNonFunctional"`
	} `yaml:"coverage"`
}

// DefaultHeuristics parses the embedded scoring policy.
func DefaultHeuristics() (Heuristics, error) {
	var h Heuristics
	if err := yaml.Unmarshal(heuristicsYAML, &h); err != nil {
		return h, fmt.Errorf("failed to parse scoring heuristics: %w", err)
	}
	if len(h.Sections) == 0 || h.MinimumWords <= 0 {
		return h, fmt.Errorf("scoring heuristics are incomplete")
	}
	return h, nil
}
