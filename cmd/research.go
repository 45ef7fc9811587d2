package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"compass/application"
	"compass/domain"
	"compass/ports"
)

// ResearchCmd groups research operations
type ResearchCmd struct {
	Add   ResearchAddCmd   `cmd:"add" help:"Append a research record to a session bucket"`
	Probe ResearchProbeCmd `cmd:"probe" help:"Check availability of registered research providers"`
}

// ResearchAddCmd appends one research record
type ResearchAddCmd struct {
	SessionID string `arg:"" help:"Session id"`
	Bucket    string `arg:"" help:"Research bucket (market-analysis, technical-validation, competitive-analysis, general)"`
	Query     string `arg:"" help:"Query text"`
	Provider  string `help:"Provider that produced the result" default:"manual"`
	QueryType string `help:"Query type tag" default:"general"`
	Results   string `help:"Result payload as JSON" optional:""`
	Failed    bool   `help:"Record the query as failed"`
	Error     string `help:"Error message for a failed query" optional:""`
}

// Run appends the record
func (a *ResearchAddCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	record := domain.ResearchQuery{
		Query:     a.Query,
		Provider:  a.Provider,
		QueryType: a.QueryType,
		Success:   !a.Failed,
		Error:     a.Error,
	}
	if a.Results != "" {
		if !json.Valid([]byte(a.Results)) {
			return fmt.Errorf("results payload is not valid JSON")
		}
		record.Results = json.RawMessage(a.Results)
	}

	session, err := sessions.AddResearchData(context.Background(), a.SessionID, a.Bucket, record)
	if err != nil {
		return err
	}

	fmt.Printf("Recorded research in %s (%d total records)\n", a.Bucket, session.Research.Total())
	return nil
}

// ResearchProbeCmd checks provider availability
type ResearchProbeCmd struct{}

// Run probes every registered provider
func (p *ResearchProbeCmd) Run(cli *CLI) error {
	sessions, err := cli.sessions()
	if err != nil {
		return err
	}

	svc := application.NewResearchService(sessions, cli.providers())
	available := svc.Probe(context.Background(), ports.ResearchContext{})
	if len(available) == 0 {
		fmt.Println("No research providers registered")
		return nil
	}

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := "unavailable"
		if available[name] {
			status = "available"
		}
		fmt.Printf("%-20s %s\n", name, status)
	}
	return nil
}
