// Package quality scores a generated PRD against five weighted criteria,
// using the originating session as ground truth. Assessment is a pure
// function of its inputs: identical inputs always yield identical results,
// which both iterative improvement feedback and automated gating rely on.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"compass/domain"
	"compass/schema"
)

// Criterion weights in percent. Fixed by contract; they must sum to 100.
const (
	weightCompleteness = 25
	weightClarity      = 20
	weightTechnical    = 20
	weightMarket       = 15
	weightCoverage     = 20
)

// StructureHints optionally names sections the document assembler knows it
// emitted, saving the engine from having to find them by scanning.
type StructureHints struct {
	Sections []string
}

// Engine computes quality assessments. It holds only the heuristics policy;
// it has no mutable state.
type Engine struct {
	h Heuristics
}

// NewEngine creates an engine with the embedded default heuristics.
func NewEngine() (*Engine, error) {
	h, err := DefaultHeuristics()
	if err != nil {
		return nil, err
	}
	return &Engine{h: h}, nil
}

// NewEngineWithHeuristics creates an engine with a custom policy.
func NewEngineWithHeuristics(h Heuristics) *Engine {
	return &Engine{h: h}
}

// AssessPRDQuality scores a document against the session that produced it.
// The assessment object is always fully populated, even for an empty
// document or a session with no stage data.
func (e *Engine) AssessPRDQuality(documentText string, session *domain.Session, hints *StructureHints) domain.QualityAssessment {
	doc := newDocSignals(documentText, e.h, hints)

	scores := map[domain.Criterion]int{
		domain.CriterionCompleteness:         e.scoreCompleteness(doc),
		domain.CriterionClarity:              e.scoreClarity(doc),
		domain.CriterionTechnicalFeasibility: e.scoreTechnicalFeasibility(doc, session),
		domain.CriterionMarketValidation:     e.scoreMarketValidation(doc, session),
		domain.CriterionRequirementsCoverage: e.scoreRequirementsCoverage(doc, session),
	}

	weighted := weightCompleteness*scores[domain.CriterionCompleteness] +
		weightClarity*scores[domain.CriterionClarity] +
		weightTechnical*scores[domain.CriterionTechnicalFeasibility] +
		weightMarket*scores[domain.CriterionMarketValidation] +
		weightCoverage*scores[domain.CriterionRequirementsCoverage]
	overall := (weighted + 50) / 100

	gaps, recommendations := e.findGaps(scores, doc, session)
	readyDev, readyTasks := domain.Readiness(overall)

	return domain.QualityAssessment{
		OverallScore:           overall,
		Criteria:               scores,
		Gaps:                   gaps,
		Recommendations:        recommendations,
		ReadyForDevelopment:    readyDev,
		ReadyForTaskGeneration: readyTasks,
		Confidence:             confidence(scores),
	}
}

// docSignals caches the document-derived signals every criterion reads.
type docSignals struct {
	text            string
	lower           string
	words           int
	sectionsPresent int
	sectionsMissing []string
}

func newDocSignals(text string, h Heuristics, hints *StructureHints) docSignals {
	d := docSignals{
		text:  text,
		lower: strings.ToLower(text),
		words: len(strings.Fields(text)),
	}

	hinted := make(map[string]bool)
	if hints != nil {
		for _, s := range hints.Sections {
			hinted[strings.ToLower(s)] = true
		}
	}
	for _, section := range h.Sections {
		if hinted[section] || strings.Contains(d.lower, section) {
			d.sectionsPresent++
		} else {
			d.sectionsMissing = append(d.sectionsMissing, section)
		}
	}
	return d
}

// hasSection reports whether a named section appears in the document.
func (d *docSignals) hasSection(name string) bool {
	return strings.Contains(d.lower, name)
}

// scoreCompleteness rewards canonical section presence (70 points) and
// document length up to the minimum word count (30 points).
func (e *Engine) scoreCompleteness(doc docSignals) int {
	if doc.words == 0 {
		return 0
	}
	sectionScore := 0
	if total := len(e.h.Sections); total > 0 {
		sectionScore = doc.sectionsPresent * 70 / total
	}
	lengthScore := doc.words * 30 / e.h.MinimumWords
	if lengthScore > 30 {
		lengthScore = 30
	}
	return clampScore(sectionScore + lengthScore)
}

// scoreClarity measures structural signals: heading hierarchy, list
// structure and actionable language. Literal prose quality is out of scope.
func (e *Engine) scoreClarity(doc docSignals) int {
	if doc.words == 0 {
		return 0
	}

	score := 0
	if strings.Contains(doc.text, "# ") {
		score += 15
	}
	if strings.Contains(doc.text, "## ") {
		score += 15
	}

	bullets := 0
	for _, line := range strings.Split(doc.text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || startsWithNumberedItem(trimmed) {
			bullets++
		}
	}
	score += minInt(30, bullets*5)

	verbs := 0
	for _, verb := range e.h.Clarity.ActionVerbs {
		if strings.Contains(doc.lower, verb) {
			verbs++
		}
	}
	score += minInt(40, verbs*8)

	return clampScore(score)
}

// scoreTechnicalFeasibility combines technology terminology in the document
// with correlation against the session's technical-feasibility stage data.
func (e *Engine) scoreTechnicalFeasibility(doc docSignals, session *domain.Session) int {
	if doc.words == 0 {
		return 0
	}

	distinct := 0
	for _, kw := range e.h.Technical.Keywords {
		if strings.Contains(doc.lower, kw) {
			distinct++
		}
	}
	score := minInt(70, distinct*10)

	matches := 0
	for _, term := range sessionStackTerms(session) {
		if term != "" && strings.Contains(doc.lower, strings.ToLower(term)) {
			matches++
		}
	}
	score += minInt(30, matches*10)

	return clampScore(score)
}

// scoreMarketValidation combines market terminology with correlation against
// the session's market-research stage data.
func (e *Engine) scoreMarketValidation(doc docSignals, session *domain.Session) int {
	if doc.words == 0 {
		return 0
	}

	distinct := 0
	for _, kw := range e.h.Market.Keywords {
		if strings.Contains(doc.lower, kw) {
			distinct++
		}
	}
	score := minInt(60, distinct*12)

	matches := 0
	for _, name := range sessionCompetitorNames(session) {
		if name != "" && strings.Contains(doc.lower, strings.ToLower(name)) {
			matches++
		}
	}
	score += minInt(25, matches*12)

	if len(stageData(session, domain.StageMarketResearch)) > 0 && strings.Contains(doc.lower, "market") {
		score += 15
	}

	return clampScore(score)
}

// scoreRequirementsCoverage scores the count and structure of requirements
// drawn from session data, reusing the stage validator's field-presence
// rule, scaled down when the document never surfaces them.
func (e *Engine) scoreRequirementsCoverage(doc docSignals, session *domain.Session) int {
	data := stageData(session, domain.StageRequirementsSynthesis)
	reqs, err := domain.DecodeRequirements(data)
	if err != nil {
		return 0
	}

	score := 0
	if target := e.h.Coverage.TargetFunctional; target > 0 {
		score += minInt(40, len(reqs.Functional)*40/target)
	}
	if target := e.h.Coverage.TargetNonFunctional; target > 0 {
		score += minInt(25, len(reqs.NonFunctional)*25/target)
	}
	score += requirementStructureScore(reqs)

	if report, err := schema.ValidateStageCompletion(domain.StageRequirementsSynthesis, data); err == nil {
		score += report.Score * 15 / 100
	}

	// Requirements the document never surfaces count for less.
	docWeight := 70
	if doc.hasSection("functional requirements") || doc.hasSection("requirements") {
		docWeight = 100
	}
	return clampScore(score * docWeight / 100)
}

// requirementStructureScore applies the field-presence rule to each
// functional requirement, averaging across them (0-20 points).
func requirementStructureScore(reqs domain.Requirements) int {
	if len(reqs.Functional) == 0 {
		return 0
	}
	total := 0
	for _, fr := range reqs.Functional {
		fields := 0
		for _, v := range []string{fr.ID, fr.Title, fr.Description, fr.Priority, fr.Category} {
			if schema.FieldPresent(v) {
				fields++
			}
		}
		total += fields * 20 / 5
	}
	return total / len(reqs.Functional)
}

// findGaps emits at least one gap and one recommendation for every
// criterion below the configured floor, in fixed criterion order.
func (e *Engine) findGaps(scores map[domain.Criterion]int, doc docSignals, session *domain.Session) (gaps, recommendations []string) {
	gaps = []string{}
	recommendations = []string{}

	for _, criterion := range domain.Criteria() {
		if scores[criterion] >= e.h.GapFloor {
			continue
		}
		switch criterion {
		case domain.CriterionCompleteness:
			if doc.words < e.h.NearEmptyWords {
				gaps = append(gaps, "document is empty or near-empty")
			}
			if len(doc.sectionsMissing) > 0 {
				gaps = append(gaps, fmt.Sprintf("document is missing sections: %s", strings.Join(doc.sectionsMissing, ", ")))
			}
			if doc.words < e.h.MinimumWords {
				gaps = append(gaps, fmt.Sprintf("document is short: %d words (minimum %d)", doc.words, e.h.MinimumWords))
			}
			recommendations = append(recommendations, "Add the missing canonical sections and expand each to cover its topic")

		case domain.CriterionClarity:
			gaps = append(gaps, "document lacks structural cues: headings, lists, or actionable language")
			recommendations = append(recommendations, "Structure the document with heading levels, bullet lists, and imperative requirement language")

		case domain.CriterionTechnicalFeasibility:
			gaps = append(gaps, "technical approach is underspecified in the document")
			if len(stageData(session, domain.StageTechnicalFeasibility)) == 0 {
				gaps = append(gaps, "technical feasibility stage has no data to ground the document in")
			}
			recommendations = append(recommendations, "Describe the recommended stack, architecture, and known risks")

		case domain.CriterionMarketValidation:
			gaps = append(gaps, "market validation evidence is thin")
			if len(stageData(session, domain.StageMarketResearch)) == 0 {
				gaps = append(gaps, "market research stage has no data to ground the document in")
			}
			recommendations = append(recommendations, "Reference competitors, market size, and concrete opportunities")

		case domain.CriterionRequirementsCoverage:
			reqs, _ := domain.DecodeRequirements(stageData(session, domain.StageRequirementsSynthesis))
			gaps = append(gaps, fmt.Sprintf("requirements coverage is low: %d functional and %d non-functional requirements captured",
				len(reqs.Functional), len(reqs.NonFunctional)))
			recommendations = append(recommendations, fmt.Sprintf("Capture at least %d functional and %d non-functional requirements with full fields",
				e.h.Coverage.TargetFunctional, e.h.Coverage.TargetNonFunctional))
		}
	}
	return gaps, recommendations
}

// confidence grades the assessment from the spread of the sub-scores: low
// variance with a high mean earns higher confidence.
func confidence(scores map[domain.Criterion]int) domain.ConfidenceLevel {
	criteria := domain.Criteria()
	sum := 0
	for _, c := range criteria {
		sum += scores[c]
	}
	mean := float64(sum) / float64(len(criteria))

	var variance float64
	for _, c := range criteria {
		d := float64(scores[c]) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(criteria)))

	switch {
	case mean >= 70 && stddev <= 15:
		return domain.ConfidenceHigh
	case mean >= 45 && stddev <= 30:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// stageData returns a stage's payload, tolerating nil sessions and missing
// progress entries.
func stageData(session *domain.Session, stage domain.Stage) map[string]any {
	if session == nil || session.Progress == nil {
		return nil
	}
	progress, ok := session.Progress[stage]
	if !ok {
		return nil
	}
	return progress.Data
}

// sessionStackTerms collects technology terms from the session: recommended
// stack entries and metadata tech-stack hints.
func sessionStackTerms(session *domain.Session) []string {
	var terms []string
	data := stageData(session, domain.StageTechnicalFeasibility)
	if stack, ok := data["recommendedStack"].(map[string]any); ok {
		for _, layer := range []string{"frontend", "backend", "database", "infrastructure"} {
			if v, ok := stack[layer].(string); ok {
				terms = append(terms, v)
			}
		}
		// Layers outside the canonical four still count, in sorted order.
		terms = append(terms, sortedStringValues(stack, map[string]bool{
			"frontend": true, "backend": true, "database": true, "infrastructure": true,
		})...)
	}
	if session != nil {
		terms = append(terms, session.Metadata.TechStack...)
	}
	return terms
}

// sortedStringValues returns map string values whose keys are not excluded,
// ordered by key for determinism.
func sortedStringValues(m map[string]any, exclude map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !exclude[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			values = append(values, v)
		}
	}
	return values
}

// sessionCompetitorNames collects competitor names from the market-research
// stage data.
func sessionCompetitorNames(session *domain.Session) []string {
	data := stageData(session, domain.StageMarketResearch)
	raw, ok := data["competitors"].([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, item := range raw {
		if comp, ok := item.(map[string]any); ok {
			if name, ok := comp["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// startsWithNumberedItem matches ordered-list lines like "1. Do the thing".
func startsWithNumberedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(line) && line[i] == '.' && line[i+1] == ' '
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
