package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"compass/domain"
	"compass/quality"
)

// AssessCmd scores a generated PRD against its originating session
type AssessCmd struct {
	SessionID string `arg:"" help:"Session the document was generated from"`
	File      string `arg:"" help:"Path to the PRD markdown file"`
	JSON      bool   `help:"Print the full assessment as JSON"`
}

// Run assesses the document
func (a *AssessCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.GetSession(context.Background(), a.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, a.SessionID)
	}

	content, err := os.ReadFile(a.File)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	engine, err := quality.NewEngine()
	if err != nil {
		return err
	}
	assessment := engine.AssessPRDQuality(string(content), session, nil)

	if a.JSON {
		out, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode assessment: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Overall score: %d/100 (confidence: %s)\n", assessment.OverallScore, assessment.Confidence)
	for _, criterion := range domain.Criteria() {
		fmt.Printf("  %-25s %d\n", criterion, assessment.Criteria[criterion])
	}
	fmt.Printf("Ready for development: %v\n", assessment.ReadyForDevelopment)
	fmt.Printf("Ready for task generation: %v\n", assessment.ReadyForTaskGeneration)

	if len(assessment.Gaps) > 0 {
		fmt.Println("\nGaps:")
		for _, gap := range assessment.Gaps {
			fmt.Printf("  - %s\n", gap)
		}
	}
	if len(assessment.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range assessment.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	return nil
}
