package domain

import (
	"encoding/json"
	"fmt"
)

// FunctionalRequirement is one functional requirement captured during
// requirements synthesis.
type FunctionalRequirement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// NonFunctionalRequirement is one quality attribute requirement.
type NonFunctionalRequirement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Criteria    []string `json:"criteria,omitempty"`
}

// UserStory is one user story in "as a / I want / so that" form.
type UserStory struct {
	ID         string   `json:"id"`
	Persona    string   `json:"persona"`
	Goal       string   `json:"goal"`
	Benefit    string   `json:"benefit"`
	Acceptance []string `json:"acceptance,omitempty"`
}

// DependencyEdge records that one requirement depends on another.
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Requirements is the typed view of the requirements-synthesis stage payload.
type Requirements struct {
	Functional    []FunctionalRequirement    `json:"functionalRequirements,omitempty"`
	NonFunctional []NonFunctionalRequirement `json:"nonFunctionalRequirements,omitempty"`
	UserStories   []UserStory                `json:"userStories,omitempty"`
	Dependencies  []DependencyEdge           `json:"dependencies,omitempty"`
}

// DecodeRequirements converts a requirements-synthesis stage payload into its
// typed form. Stage payloads are stored as JSON-shaped maps; this round-trips
// through encoding/json, so unknown fields are dropped and missing fields
// yield zero values.
func DecodeRequirements(data map[string]any) (Requirements, error) {
	var reqs Requirements
	if len(data) == 0 {
		return reqs, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return reqs, fmt.Errorf("failed to encode stage payload: %w", err)
	}
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return reqs, fmt.Errorf("failed to decode requirements payload: %w", err)
	}
	return reqs, nil
}
