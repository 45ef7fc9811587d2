package cmd

import (
	"context"
	"fmt"

	"compass/domain"
)

// StartCmd creates a new discovery session for a project
type StartCmd struct {
	ProjectName string            `arg:"" help:"Project to start discovery for"`
	TechStack   []string          `help:"Technology hints for feasibility research" name:"tech"`
	Constraint  []string          `help:"Known constraints (repeatable)"`
	Pref        map[string]string `help:"Free-form user preferences (key=value)"`
}

// Run creates the session and prints its id
func (s *StartCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.CreateSession(context.Background(), s.ProjectName, domain.SessionMetadata{
		Preferences: s.Pref,
		TechStack:   s.TechStack,
		Constraints: s.Constraint,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Started discovery session %s for %q\n", session.ID, session.ProjectName)
	fmt.Printf("Current stage: %s\n", session.Stage)
	return nil
}
