package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/domain"
)

func newTestFileRepo(t *testing.T) *FileRepository {
	t.Helper()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	return repo
}

func newTestState(t *testing.T, project string) *domain.ProjectState {
	t.Helper()
	session, err := domain.NewSession(project, domain.SessionMetadata{}, time.Now().UTC())
	require.NoError(t, err)
	state := domain.EmptyProjectState()
	state.DiscoverySession = session
	return state
}

func TestFileRepository_LoadMissingFile(t *testing.T) {
	repo := newTestFileRepo(t)

	state, err := repo.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, state.Workflow)
	assert.Nil(t, state.DiscoverySession)
	assert.Zero(t, state.Version)
}

func TestFileRepository_LoadCorruptFile(t *testing.T) {
	repo := newTestFileRepo(t)
	path := filepath.Join(repo.dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	state, err := repo.Load(context.Background(), "broken")
	require.NoError(t, err, "corrupt state degrades to empty default, never a hard failure")
	assert.Nil(t, state.DiscoverySession)
	assert.NotNil(t, state.Workflow)
}

func TestFileRepository_SaveLoadRoundtrip(t *testing.T) {
	repo := newTestFileRepo(t)
	ctx := context.Background()
	state := newTestState(t, "invoicer")
	state.Workflow["tasks"] = map[string]any{"count": 3.0}

	require.NoError(t, repo.Save(ctx, "invoicer", state))
	assert.Equal(t, int64(1), state.Version)

	loaded, err := repo.Load(ctx, "invoicer")
	require.NoError(t, err)
	require.NotNil(t, loaded.DiscoverySession)
	assert.Equal(t, state.DiscoverySession.ID, loaded.DiscoverySession.ID)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Contains(t, loaded.Workflow, "tasks", "sibling workflow state survives")
}

func TestFileRepository_VersionConflict(t *testing.T) {
	repo := newTestFileRepo(t)
	ctx := context.Background()

	first := newTestState(t, "invoicer")
	require.NoError(t, repo.Save(ctx, "invoicer", first))

	// A second writer loading before the first save landed.
	stale := newTestState(t, "invoicer")
	err := repo.Save(ctx, "invoicer", stale)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	// The stored document is untouched by the rejected save.
	loaded, err := repo.Load(ctx, "invoicer")
	require.NoError(t, err)
	assert.Equal(t, first.DiscoverySession.ID, loaded.DiscoverySession.ID)
}

func TestFileRepository_FindSession(t *testing.T) {
	repo := newTestFileRepo(t)
	ctx := context.Background()

	state := newTestState(t, "invoicer")
	require.NoError(t, repo.Save(ctx, "invoicer", state))

	project, found, err := repo.FindSession(ctx, state.DiscoverySession.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "invoicer", project)
	assert.Equal(t, state.DiscoverySession.ID, found.DiscoverySession.ID)

	_, missing, err := repo.FindSession(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileRepository_RejectsInvalidState(t *testing.T) {
	repo := newTestFileRepo(t)
	state := newTestState(t, "invoicer")
	delete(state.DiscoverySession.Progress, domain.StagePRDGeneration)

	err := repo.Save(context.Background(), "invoicer", state)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSanitizeProjectName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"E-commerce Platform", "E-commerce_Platform"},
		{"a/b\\c", "a_b_c"},
		{"dots.and-dashes_ok", "dots.and-dashes_ok"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeProjectName(tt.input))
		})
	}
}
