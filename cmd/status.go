package cmd

import (
	"context"
	"fmt"

	"compass/domain"
)

// StatusCmd prints a project's session and per-stage progress
type StatusCmd struct {
	Project string `arg:"" help:"Project name"`
}

// Run prints the session status
func (s *StatusCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.CurrentSession(context.Background(), s.Project)
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Printf("No discovery session for %q\n", s.Project)
		return nil
	}

	fmt.Printf("Session %s for %q\n", session.ID, session.ProjectName)
	fmt.Printf("Status: %s  Stage: %s\n", session.Status, session.Stage)
	fmt.Printf("Created: %s  Updated: %s\n",
		session.Created.Format("2006-01-02 15:04"),
		session.LastUpdated.Format("2006-01-02 15:04"))
	fmt.Println()

	for _, stage := range domain.Stages() {
		progress := session.Progress[stage]
		if progress == nil {
			progress = &domain.StageProgress{Status: domain.ProgressNotStarted}
		}
		marker := " "
		switch progress.Status {
		case domain.ProgressCompleted:
			marker = "✓"
		case domain.ProgressInProgress:
			marker = "→"
		case domain.ProgressSkipped:
			marker = "-"
		}
		fmt.Printf("  %s %-25s %-12s score=%d\n", marker, stage, progress.Status, progress.CompletionScore)
	}

	if total := session.Research.Total(); total > 0 {
		fmt.Printf("\nResearch records: %d\n", total)
	}
	return nil
}
