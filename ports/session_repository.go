package ports

import (
	"context"

	"compass/domain"
)

// StateLoader reads persisted project state. A missing or unreadable
// document loads as the documented empty default, never as an error.
type StateLoader interface {
	Load(ctx context.Context, project string) (*domain.ProjectState, error)
	// FindSession locates a session by id across projects. It returns
	// ("", nil, nil) when no project holds a session with that id.
	FindSession(ctx context.Context, sessionID string) (string, *domain.ProjectState, error)
}

// StateSaver persists project state with whole-document replacement. Save
// must reject a state whose version no longer matches the stored document
// with domain.ErrVersionConflict, and bumps the version on success.
type StateSaver interface {
	Save(ctx context.Context, project string, state *domain.ProjectState) error
}

// SessionRepository is the composite storage interface.
type SessionRepository interface {
	StateLoader
	StateSaver
	Close() error
}
