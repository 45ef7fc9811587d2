package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"compass/domain"
	"compass/schema"
)

// StageCmd groups stage operations
type StageCmd struct {
	Update   StageUpdateCmd   `cmd:"update" help:"Merge data into a stage payload"`
	Validate StageValidateCmd `cmd:"validate" help:"Check a stage's data against its completion policy"`
	Complete StageCompleteCmd `cmd:"complete" help:"Complete a stage and advance the session"`
}

// parseStageData reads stage data from an inline JSON string or @file
func parseStageData(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "@") {
		content, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = string(content)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("invalid stage data JSON: %w", err)
	}
	return data, nil
}

// StageUpdateCmd merges partial data into a stage
type StageUpdateCmd struct {
	SessionID string `arg:"" help:"Session id"`
	Stage     string `arg:"" help:"Target stage"`
	Data      string `arg:"" help:"Stage data as JSON, or @file"`
}

// Run merges the data
func (u *StageUpdateCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}
	data, err := parseStageData(u.Data)
	if err != nil {
		return err
	}

	session, err := sessions.UpdateSessionStage(context.Background(), u.SessionID, domain.Stage(u.Stage), data)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %s (%d fields), current stage: %s\n", u.Stage, len(data), session.Stage)
	return nil
}

// StageValidateCmd reports completion readiness for a stage's current data
type StageValidateCmd struct {
	SessionID string `arg:"" help:"Session id"`
	Stage     string `arg:"" help:"Stage to validate"`
}

// Run prints the completion report
func (v *StageValidateCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.GetSession(context.Background(), v.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, v.SessionID)
	}

	stage := domain.Stage(v.Stage)
	var data map[string]any
	if progress, ok := session.Progress[stage]; ok {
		data = progress.Data
	}

	report, err := schema.ValidateStageCompletion(stage, data)
	if err != nil {
		return err
	}

	fmt.Printf("Stage %s: score %d (%d/%d fields)\n", stage, report.Score, report.CompletedFields, report.TotalFields)
	if len(report.MissingFields) > 0 {
		fmt.Printf("Missing: %s\n", strings.Join(report.MissingFields, ", "))
	}
	if report.Valid {
		fmt.Println("Ready to complete")
	} else {
		fmt.Println("Not ready to complete")
	}
	return nil
}

// StageCompleteCmd completes a stage and advances the session
type StageCompleteCmd struct {
	SessionID string `arg:"" help:"Session id"`
	Stage     string `arg:"" help:"Stage to complete"`
	Data      string `arg:"" optional:"" help:"Final stage data as JSON, or @file"`
	Score     int    `help:"Completion score to record" default:"100"`
	Force     bool   `help:"Skip the completion-policy gate"`
}

// Run gates on the completion policy, then completes the stage
func (c *StageCompleteCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}
	data, err := parseStageData(c.Data)
	if err != nil {
		return err
	}

	stage := domain.Stage(c.Stage)
	ctx := context.Background()

	if !c.Force {
		session, err := sessions.GetSession(ctx, c.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, c.SessionID)
		}
		merged := make(map[string]any)
		if progress, ok := session.Progress[stage]; ok {
			for k, v := range progress.Data {
				merged[k] = v
			}
		}
		for k, v := range data {
			merged[k] = v
		}
		report, err := schema.ValidateStageCompletion(stage, merged)
		if err != nil {
			return err
		}
		if !report.Valid {
			return fmt.Errorf("stage %s is not ready to complete: score %d, missing %s (use --force to override)",
				stage, report.Score, strings.Join(report.MissingFields, ", "))
		}
	}

	result, err := sessions.CompleteStage(ctx, c.SessionID, stage, data, c.Score)
	if err != nil {
		return err
	}

	if result.SessionCompleted {
		fmt.Printf("Completed %s: discovery finished for %q\n", stage, result.Session.ProjectName)
	} else {
		fmt.Printf("Completed %s, next stage: %s\n", stage, result.NextStage)
	}
	return nil
}
