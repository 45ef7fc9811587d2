package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"compass/domain"
	"compass/ports"
	"compass/schema"
)

// MemoryRepository keeps project state documents in memory. It mirrors the
// durable backends' version semantics so tests exercise the same contract.
type MemoryRepository struct {
	mu     sync.Mutex
	states map[string][]byte
}

var _ ports.SessionRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string][]byte)}
}

// Close implements SessionRepository.Close.
func (r *MemoryRepository) Close() error {
	return nil
}

// Load implements StateLoader.Load. Unknown projects load as the empty
// default state.
func (r *MemoryRepository) Load(ctx context.Context, project string) (*domain.ProjectState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, ok := r.states[project]
	if !ok {
		return domain.EmptyProjectState(), nil
	}
	return decodeState(raw), nil
}

// FindSession implements StateLoader.FindSession.
func (r *MemoryRepository) FindSession(ctx context.Context, sessionID string) (string, *domain.ProjectState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for project, raw := range r.states {
		state := decodeState(raw)
		if state.DiscoverySession != nil && state.DiscoverySession.ID == sessionID {
			return project, state, nil
		}
	}
	return "", nil, nil
}

// Save implements StateSaver.Save with whole-document replacement and an
// optimistic version check.
func (r *MemoryRepository) Save(ctx context.Context, project string, state *domain.ProjectState) error {
	if err := schema.ValidateProjectState(state); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var stored int64
	if raw, ok := r.states[project]; ok {
		stored = decodeState(raw).Version
	}
	if state.Version != stored {
		return fmt.Errorf("%w: project %s", domain.ErrVersionConflict, project)
	}

	state.Version++
	raw, err := json.Marshal(state)
	if err != nil {
		state.Version--
		return fmt.Errorf("failed to marshal project state: %w", err)
	}
	r.states[project] = raw
	return nil
}

// decodeState deserializes a stored document, degrading to the empty default
// when the bytes are unreadable.
func decodeState(raw []byte) *domain.ProjectState {
	var state domain.ProjectState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.EmptyProjectState()
	}
	if state.Workflow == nil {
		state.Workflow = make(map[string]any)
	}
	return &state
}
