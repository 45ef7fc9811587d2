package cmd

import (
	"context"
	"fmt"
)

// ResumeCmd reactivates a session by id
type ResumeCmd struct {
	SessionID string `arg:"" help:"Session id to resume"`
}

// Run resumes the session
func (r *ResumeCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.ResumeSession(context.Background(), r.SessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Resumed session %s for %q (stage: %s)\n", session.ID, session.ProjectName, session.Stage)
	return nil
}

// PauseCmd pauses an active session
type PauseCmd struct {
	SessionID string `arg:"" help:"Session id to pause"`
}

// Run pauses the session
func (p *PauseCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.PauseSession(context.Background(), p.SessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Paused session %s\n", session.ID)
	return nil
}

// CancelCmd cancels a session (terminal)
type CancelCmd struct {
	SessionID string `arg:"" help:"Session id to cancel"`
}

// Run cancels the session
func (c *CancelCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	session, err := sessions.CancelSession(context.Background(), c.SessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Cancelled session %s for %q\n", session.ID, session.ProjectName)
	return nil
}
