package application

import (
	"fmt"

	"compass/domain"
)

// EnsureReadyForGeneration verifies the document-assembly precondition:
// requirements synthesis must be completed before a PRD can be generated.
// Document assembly implementations call this with the public session shape.
func EnsureReadyForGeneration(session *domain.Session) error {
	if session == nil {
		return domain.ErrSessionNotFound
	}
	progress, ok := session.Progress[domain.StageRequirementsSynthesis]
	if !ok || progress.Status != domain.ProgressCompleted {
		return fmt.Errorf("%w (session %s)", domain.ErrRequirementsIncomplete, session.ID)
	}
	return nil
}
