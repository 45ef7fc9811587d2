package application

import (
	"context"
	"fmt"
	"time"

	"compass/domain"
	"compass/logging"
	"compass/ports"
	"compass/schema"
)

// DefaultSessionTimeout is how long a session stays usable after creation.
const DefaultSessionTimeout = 24 * time.Hour

// SessionService is the stage-gated session state machine. It is a pure
// state mutator: every failure is reported to the caller, never retried.
type SessionService struct {
	repo    ports.SessionRepository
	timeout time.Duration
	now     func() time.Time
}

// NewSessionService creates a SessionService. A non-positive timeout falls
// back to DefaultSessionTimeout.
func NewSessionService(repo ports.SessionRepository, timeout time.Duration) *SessionService {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionService{
		repo:    repo,
		timeout: timeout,
		now:     time.Now,
	}
}

// CreateSession starts a new discovery session for a project. It fails with
// ErrSessionExists while a non-terminal session exists for the project.
func (s *SessionService) CreateSession(ctx context.Context, projectName string, metadata domain.SessionMetadata) (*domain.Session, error) {
	logging.Logger.Info("Creating discovery session", "project", projectName)

	state, err := s.repo.Load(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to load project state: %w", err)
	}
	if existing := state.DiscoverySession; existing != nil && !existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: project %s", domain.ErrSessionExists, projectName)
	}

	session, err := domain.NewSession(projectName, metadata, s.now().UTC())
	if err != nil {
		return nil, err
	}

	state.DiscoverySession = session
	if err := s.repo.Save(ctx, projectName, state); err != nil {
		logging.Logger.Error("Failed to persist new session", "project", projectName, "error", err)
		return nil, err
	}

	logging.Logger.Info("Session created", "project", projectName, "session_id", session.ID, "stage", session.Stage)
	return session, nil
}

// ResumeSession reactivates a paused or active session by id, failing with
// ErrSessionNotFound, ErrSessionTerminal or ErrSessionExpired.
func (s *SessionService) ResumeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	logging.Logger.Info("Resuming session", "session_id", sessionID)

	project, state, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := state.DiscoverySession
	if err := s.checkUsable(session); err != nil {
		return nil, err
	}

	session.Status = domain.StatusActive
	session.Touch(s.now().UTC())
	if err := s.repo.Save(ctx, project, state); err != nil {
		return nil, err
	}

	logging.Logger.Info("Session resumed", "session_id", sessionID, "stage", session.Stage)
	return session, nil
}

// CurrentSession returns the project's session, or nil when there is none.
// Pure read: absence is not an error.
func (s *SessionService) CurrentSession(ctx context.Context, project string) (*domain.Session, error) {
	state, err := s.repo.Load(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to load project state: %w", err)
	}
	return state.DiscoverySession, nil
}

// GetSession returns the session with the given id, or nil when absent.
// Pure read: absence is not an error.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	_, state, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if state == nil {
		return nil, nil
	}
	return state.DiscoverySession, nil
}

// UpdateSessionStage shallow-merges partial data into a stage payload and
// makes that stage the session's current stage.
func (s *SessionService) UpdateSessionStage(ctx context.Context, sessionID string, stage domain.Stage, partial map[string]any) (*domain.Session, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStage, stage)
	}
	if err := schema.ValidateStagePayload(stage, partial); err != nil {
		return nil, err
	}

	project, state, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := state.DiscoverySession
	if err := s.checkUsable(session); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	progress := session.StageProgress(stage)
	progress.MergeData(partial)
	if progress.Status == domain.ProgressNotStarted {
		progress.Status = domain.ProgressInProgress
		started := now
		progress.StartedAt = &started
	}
	session.Stage = stage
	session.Touch(now)

	if err := s.repo.Save(ctx, project, state); err != nil {
		return nil, err
	}

	logging.Logger.Info("Stage updated", "session_id", sessionID, "stage", stage, "fields", len(partial))
	return session, nil
}

// CompleteStage merges final data, marks the stage completed and advances
// the session to the successor stage. Completing the last stage completes
// the session. This is the sole forward transition in the state machine.
func (s *SessionService) CompleteStage(ctx context.Context, sessionID string, stage domain.Stage, final map[string]any, completionScore int) (*CompleteStageResult, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStage, stage)
	}
	if err := schema.ValidateStagePayload(stage, final); err != nil {
		return nil, err
	}

	project, state, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := state.DiscoverySession
	if err := s.checkUsable(session); err != nil {
		return nil, err
	}

	if completionScore < 0 {
		completionScore = 0
	}
	if completionScore > 100 {
		completionScore = 100
	}

	now := s.now().UTC()
	progress := session.StageProgress(stage)
	progress.MergeData(final)
	if progress.StartedAt == nil {
		started := now
		progress.StartedAt = &started
	}
	completed := now
	progress.Status = domain.ProgressCompleted
	progress.CompletedAt = &completed
	progress.CompletionScore = completionScore

	result := &CompleteStageResult{Session: session}
	if next, ok := stage.Next(); ok {
		nextProgress := session.StageProgress(next)
		if nextProgress.Status == domain.ProgressNotStarted {
			nextProgress.Status = domain.ProgressInProgress
			started := now
			nextProgress.StartedAt = &started
		}
		session.Stage = next
		result.NextStage = next
	} else {
		session.Status = domain.StatusCompleted
		result.SessionCompleted = true
	}
	session.Touch(now)

	if err := s.repo.Save(ctx, project, state); err != nil {
		return nil, err
	}

	logging.Logger.Info("Stage completed",
		"session_id", sessionID,
		"stage", stage,
		"score", completionScore,
		"next_stage", result.NextStage,
		"session_completed", result.SessionCompleted)
	return result, nil
}

// PauseSession marks an active session paused.
func (s *SessionService) PauseSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.setStatus(ctx, sessionID, domain.StatusPaused)
}

// CancelSession moves a session to the terminal cancelled state. A new
// session can be created for the project afterwards.
func (s *SessionService) CancelSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.setStatus(ctx, sessionID, domain.StatusCancelled)
}

func (s *SessionService) setStatus(ctx context.Context, sessionID string, status domain.SessionStatus) (*domain.Session, error) {
	project, state, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := state.DiscoverySession
	if session.Status.Terminal() {
		return nil, fmt.Errorf("%w: session %s is already %s", domain.ErrSessionTerminal, sessionID, session.Status)
	}

	session.Status = status
	session.Touch(s.now().UTC())
	if err := s.repo.Save(ctx, project, state); err != nil {
		return nil, err
	}

	logging.Logger.Info("Session status changed", "session_id", sessionID, "status", status)
	return session, nil
}

// AddResearchData appends a timestamped research record to the named bucket.
// Unknown buckets are a documented no-op: research is supplementary, so a
// misrouted record is dropped with a warning rather than failing the caller.
func (s *SessionService) AddResearchData(ctx context.Context, sessionID, bucket string, query domain.ResearchQuery) (*domain.Session, error) {
	project, state, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := state.DiscoverySession
	if err := s.checkUsable(session); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if query.Timestamp.IsZero() {
		query.Timestamp = now
	}
	if err := schema.ValidateResearchQuery(query); err != nil {
		return nil, err
	}

	if !session.Research.Append(bucket, query) {
		logging.Logger.Warn("Ignoring research record for unknown bucket",
			"session_id", sessionID, "bucket", bucket, "provider", query.Provider)
		return session, nil
	}

	session.Touch(now)
	if err := s.repo.Save(ctx, project, state); err != nil {
		return nil, err
	}

	logging.Logger.Info("Research recorded",
		"session_id", sessionID, "bucket", bucket, "provider", query.Provider, "success", query.Success)
	return session, nil
}

// findSession resolves a session id to its project and state, mapping
// absence to ErrSessionNotFound.
func (s *SessionService) findSession(ctx context.Context, sessionID string) (string, *domain.ProjectState, error) {
	project, state, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if state == nil || state.DiscoverySession == nil {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return project, state, nil
}

// checkUsable rejects mutations on terminal or expired sessions. A completed
// or cancelled session accepts no further transitions; expiry is read-time
// only, the stored session stays as-is.
func (s *SessionService) checkUsable(session *domain.Session) error {
	if session.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", domain.ErrSessionTerminal, session.ID, session.Status)
	}
	if session.Expired(s.now().UTC(), s.timeout) {
		return fmt.Errorf("%w: %s", domain.ErrSessionExpired, session.ID)
	}
	return nil
}
