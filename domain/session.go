package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a discovery session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status allows no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ProgressStatus represents the state of a single stage within a session.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not-started"
	ProgressInProgress ProgressStatus = "in-progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressSkipped    ProgressStatus = "skipped"
)

// MaxProjectNameLength bounds the project identifier.
const MaxProjectNameLength = 120

// StageProgress tracks one stage of one session. Data holds the
// stage-specific payload as a JSON-shaped map; its schema is enforced by the
// schema package before persistence.
type StageProgress struct {
	Status          ProgressStatus `json:"status"`
	CompletionScore int            `json:"completionScore"`
	StartedAt       *time.Time     `json:"startedAt,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// MergeData shallow-merges partial into the stage payload: fields present in
// partial replace same-named fields, all others are preserved.
func (p *StageProgress) MergeData(partial map[string]any) {
	if len(partial) == 0 {
		return
	}
	if p.Data == nil {
		p.Data = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		p.Data[k] = v
	}
}

// SessionMetadata holds free-form user preferences and hints captured at
// session creation.
type SessionMetadata struct {
	Preferences map[string]string `json:"preferences,omitempty"`
	TechStack   []string          `json:"techStack,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
}

// Session is the single persisted record of one discovery workflow instance
// for one project.
type Session struct {
	ID          string                   `json:"id"`
	ProjectName string                   `json:"projectName"`
	Stage       Stage                    `json:"stage"`
	Status      SessionStatus            `json:"status"`
	Progress    map[Stage]*StageProgress `json:"progress"`
	Created     time.Time                `json:"created"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Research    ResearchData             `json:"researchData"`
	Metadata    SessionMetadata          `json:"metadata"`
}

// NewSession builds a session in its initial state: all five stages
// not-started except the first, which is in-progress with a start timestamp.
func NewSession(projectName string, metadata SessionMetadata, now time.Time) (*Session, error) {
	if projectName == "" {
		return nil, &ValidationError{Fields: []string{"projectName"}, Msg: "project name is required"}
	}
	if len(projectName) > MaxProjectNameLength {
		return nil, &ValidationError{
			Fields: []string{"projectName"},
			Msg:    fmt.Sprintf("project name exceeds %d characters", MaxProjectNameLength),
		}
	}

	progress := make(map[Stage]*StageProgress, len(stageOrder))
	for _, stage := range stageOrder {
		progress[stage] = &StageProgress{Status: ProgressNotStarted}
	}
	started := now
	progress[FirstStage].Status = ProgressInProgress
	progress[FirstStage].StartedAt = &started

	return &Session{
		ID:          uuid.New().String(),
		ProjectName: projectName,
		Stage:       FirstStage,
		Status:      StatusActive,
		Progress:    progress,
		Created:     now,
		LastUpdated: now,
		Metadata:    metadata,
	}, nil
}

// StageProgress returns the progress entry for the given stage, creating a
// not-started entry if a loaded document was missing one.
func (s *Session) StageProgress(stage Stage) *StageProgress {
	if s.Progress == nil {
		s.Progress = make(map[Stage]*StageProgress, len(stageOrder))
	}
	p, ok := s.Progress[stage]
	if !ok {
		p = &StageProgress{Status: ProgressNotStarted}
		s.Progress[stage] = p
	}
	return p
}

// Expired reports whether the session's age exceeds the timeout. Expiry is a
// read-time check: an expired session remains active in storage.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.Created) > timeout
}

// Touch refreshes the last-updated timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastUpdated = now
}
