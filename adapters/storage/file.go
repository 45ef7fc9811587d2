package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"compass/domain"
	"compass/logging"
	"compass/ports"
	"compass/schema"
)

// FileRepository persists one JSON document per project under a base
// directory. Saves hold an exclusive file lock and replace the whole
// document; a missing or unparsable file degrades to the empty default
// state instead of failing the caller.
type FileRepository struct {
	dir string
}

var _ ports.SessionRepository = (*FileRepository)(nil)

// NewFileRepository creates a file-backed repository rooted at dir.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

// Close implements SessionRepository.Close.
func (r *FileRepository) Close() error {
	return nil
}

// statePath returns the document path for a project.
func (r *FileRepository) statePath(project string) string {
	return filepath.Join(r.dir, sanitizeProjectName(project)+".json")
}

// sanitizeProjectName makes a project name safe to use as a file name.
func sanitizeProjectName(project string) string {
	var b strings.Builder
	for _, c := range project {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Load implements StateLoader.Load.
func (r *FileRepository) Load(ctx context.Context, project string) (*domain.ProjectState, error) {
	return r.readState(r.statePath(project)), nil
}

// readState reads and validates a document, falling back to the empty
// default on any read, parse, or validation failure.
func (r *FileRepository) readState(path string) *domain.ProjectState {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Logger.Warn("Failed to read project state, using empty default", "path", path, "error", err)
		}
		return domain.EmptyProjectState()
	}

	var state domain.ProjectState
	if err := json.Unmarshal(raw, &state); err != nil {
		logging.Logger.Warn("Corrupt project state, using empty default", "path", path, "error", err)
		return domain.EmptyProjectState()
	}
	if err := schema.ValidateProjectState(&state); err != nil {
		logging.Logger.Warn("Invalid project state, using empty default", "path", path, "error", err)
		return domain.EmptyProjectState()
	}
	if state.Workflow == nil {
		state.Workflow = make(map[string]any)
	}
	return &state
}

// FindSession implements StateLoader.FindSession by scanning all project
// documents.
func (r *FileRepository) FindSession(ctx context.Context, sessionID string) (string, *domain.ProjectState, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		state := r.readState(filepath.Join(r.dir, entry.Name()))
		if state.DiscoverySession != nil && state.DiscoverySession.ID == sessionID {
			return state.DiscoverySession.ProjectName, state, nil
		}
	}
	return "", nil, nil
}

// Save implements StateSaver.Save: validate, lock, check the stored version,
// then truncate and rewrite the whole document.
func (r *FileRepository) Save(ctx context.Context, project string, state *domain.ProjectState) error {
	if err := schema.ValidateProjectState(state); err != nil {
		return err
	}

	path := r.statePath(project)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open project state file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlockFile(file)

	stored := storedVersion(file)
	if state.Version != stored {
		return fmt.Errorf("%w: project %s", domain.ErrVersionConflict, project)
	}

	state.Version++
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		state.Version--
		return fmt.Errorf("failed to marshal project state: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write project state: %w", err)
	}
	return nil
}

// storedVersion reads the version of the locked document. An empty or
// unparsable document counts as version zero, matching the load fallback.
func storedVersion(file *os.File) int64 {
	raw, err := io.ReadAll(file)
	if err != nil || len(raw) == 0 {
		return 0
	}
	var state domain.ProjectState
	if err := json.Unmarshal(raw, &state); err != nil {
		return 0
	}
	return state.Version
}
