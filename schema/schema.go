// Package schema defines the shape and invariants of the persisted project
// state and of every stage payload. Everything is validated against embedded
// JSON Schemas before it is persisted or acted upon.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"compass/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// stageSchemaFiles maps each stage to its payload schema resource.
var stageSchemaFiles = map[domain.Stage]string{
	domain.StageProblemFraming:        "schemas/problem_framing.json",
	domain.StageMarketResearch:        "schemas/market_research.json",
	domain.StageTechnicalFeasibility:  "schemas/technical_feasibility.json",
	domain.StageRequirementsSynthesis: "schemas/requirements_synthesis.json",
	domain.StagePRDGeneration:         "schemas/prd_generation.json",
}

const (
	projectStateSchemaFile  = "schemas/project_state.json"
	researchQuerySchemaFile = "schemas/research_query.json"
)

var (
	compileOnce sync.Once
	compileErr  error
	compiled    map[string]*jsonschema.Schema
)

// compile loads and compiles every embedded schema exactly once.
func compile() error {
	compileOnce.Do(func() {
		files := []string{projectStateSchemaFile, researchQuerySchemaFile}
		for _, f := range stageSchemaFiles {
			files = append(files, f)
		}

		c := jsonschema.NewCompiler()
		for _, name := range files {
			raw, err := schemaFS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("failed to read embedded schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				compileErr = fmt.Errorf("failed to parse embedded schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("failed to add schema resource %s: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(files))
		for _, name := range files {
			sch, err := c.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
	})
	return compileErr
}

// validate runs a compiled schema against an arbitrary Go value. The value is
// normalized through a JSON round trip so callers can pass plain structs and
// literal maps.
func validate(schemaFile string, value any, msg string) error {
	if err := compile(); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for validation: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode value for validation: %w", err)
	}

	if err := compiled[schemaFile].Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &domain.ValidationError{Fields: leafFields(verr), Msg: msg}
		}
		return &domain.ValidationError{Msg: fmt.Sprintf("%s: %v", msg, err)}
	}
	return nil
}

// leafFields collects the instance locations of the innermost causes.
func leafFields(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := strings.Join(verr.InstanceLocation, "/")
		if loc == "" {
			loc = "(document)"
		}
		return []string{loc}
	}
	var fields []string
	for _, cause := range verr.Causes {
		fields = append(fields, leafFields(cause)...)
	}
	return fields
}

// ValidateStagePayload checks a stage payload against the stage's schema.
// A nil payload is valid: stages accumulate data incrementally.
func ValidateStagePayload(stage domain.Stage, data map[string]any) error {
	file, ok := stageSchemaFiles[stage]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidStage, stage)
	}
	if data == nil {
		return nil
	}
	return validate(file, data, fmt.Sprintf("invalid %s payload", stage))
}

// ValidateResearchQuery checks a research record before it is appended.
func ValidateResearchQuery(q domain.ResearchQuery) error {
	return validate(researchQuerySchemaFile, q, "invalid research query")
}

// ValidateProjectState checks the whole persisted document, including the
// embedded session and every stage payload, as a unit.
func ValidateProjectState(state *domain.ProjectState) error {
	if state == nil {
		return &domain.ValidationError{Msg: "project state is nil"}
	}
	if err := validate(projectStateSchemaFile, state, "invalid project state document"); err != nil {
		return err
	}
	if state.DiscoverySession == nil {
		return nil
	}
	return ValidateSession(state.DiscoverySession)
}

// ValidateSession checks session invariants the JSON Schema cannot express:
// the progress map covers all five stages and the current stage is canonical.
func ValidateSession(session *domain.Session) error {
	if !session.Stage.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidStage, session.Stage)
	}
	var missing []string
	for _, stage := range domain.Stages() {
		if _, ok := session.Progress[stage]; !ok {
			missing = append(missing, string(stage))
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing, Msg: "session progress is missing stages"}
	}
	for stage, progress := range session.Progress {
		if err := ValidateStagePayload(stage, progress.Data); err != nil {
			return err
		}
		completed := progress.Status == domain.ProgressCompleted
		if completed != (progress.CompletedAt != nil) {
			return &domain.ValidationError{
				Fields: []string{string(stage) + "/completedAt"},
				Msg:    "completedAt must be set exactly when the stage is completed",
			}
		}
	}
	return nil
}
