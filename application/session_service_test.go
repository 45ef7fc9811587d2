package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/adapters/storage"
	"compass/domain"
)

func newTestService(t *testing.T) *SessionService {
	t.Helper()
	return NewSessionService(storage.NewMemoryRepository(), DefaultSessionTimeout)
}

func TestCreateSession_InitializesProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{TechStack: []string{"Go"}})
	require.NoError(t, err)

	assert.Equal(t, domain.StageProblemFraming, session.Stage)
	assert.Equal(t, domain.StatusActive, session.Status)
	for _, stage := range domain.Stages() {
		progress := session.Progress[stage]
		require.NotNil(t, progress)
		if stage == domain.FirstStage {
			assert.Equal(t, domain.ProgressInProgress, progress.Status)
		} else {
			assert.Equal(t, domain.ProgressNotStarted, progress.Status)
		}
	}

	// The session is persisted, not just returned.
	persisted, err := svc.CurrentSession(ctx, "invoicer")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, session.ID, persisted.ID)
}

func TestCreateSession_RejectsSecondActiveSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	// Cancelling the first session frees the project.
	_, err = svc.CancelSession(ctx, first.ID)
	require.NoError(t, err)

	second, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetSession_AbsentIsNilNotError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.GetSession(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, session)

	current, err := svc.CurrentSession(ctx, "no-such-project")
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestResumeSession_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ResumeSession(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestResumeSession_Expired(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	svc.now = func() time.Time { return created.Add(25 * time.Hour) }
	_, err = svc.ResumeSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	// Mutations on an expired session fail too.
	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": "too late",
	})
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	// The stored session is untouched: expiry is a read-time check.
	stored, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

// Terminal statuses admit no further transitions: a cancelled session cannot
// be resumed, mutated, or walked through its last stage into completed.
func TestCancelledSessionIsTerminal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)
	_, err = svc.CancelSession(ctx, session.ID)
	require.NoError(t, err)

	_, err = svc.ResumeSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": "late edit",
	})
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.CompleteStage(ctx, session.ID, domain.StagePRDGeneration, nil, 100)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.AddResearchData(ctx, session.ID, domain.BucketGeneral, domain.ResearchQuery{
		Query: "anything", Provider: "manual",
	})
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.PauseSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	stored, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestCompletedSessionIsTerminal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)
	result, err := svc.CompleteStage(ctx, session.ID, domain.StagePRDGeneration, nil, 100)
	require.NoError(t, err)
	require.True(t, result.SessionCompleted)

	_, err = svc.ResumeSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": "late edit",
	})
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	_, err = svc.CancelSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
}

func TestResumeSession_ReactivatesPaused(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)
	_, err = svc.PauseSession(ctx, session.ID)
	require.NoError(t, err)

	resumed, err := svc.ResumeSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, resumed.Status)
}

func TestUpdateSessionStage_MergesAndMovesStage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": "first draft",
		"targetAudience":   "accountants",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": "second draft",
		"successCriteria":  []any{"under 2 minutes"},
	})
	require.NoError(t, err)

	data := updated.Progress[domain.StageProblemFraming].Data
	assert.Equal(t, "second draft", data["problemStatement"], "merged fields replace")
	assert.Equal(t, "accountants", data["targetAudience"], "other fields survive")
	assert.Equal(t, []any{"under 2 minutes"}, data["successCriteria"])

	// Updating a later stage marks it in-progress and makes it current.
	updated, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageMarketResearch, map[string]any{
		"marketSize": "$2B",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageMarketResearch, updated.Stage)
	assert.Equal(t, domain.ProgressInProgress, updated.Progress[domain.StageMarketResearch].Status)
	assert.NotNil(t, updated.Progress[domain.StageMarketResearch].StartedAt)
}

func TestUpdateSessionStage_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.Stage("launch"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStage)

	_, err = svc.UpdateSessionStage(ctx, "no-such-id", domain.StageProblemFraming, nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.UpdateSessionStage(ctx, session.ID, domain.StageProblemFraming, map[string]any{
		"problemStatement": 42,
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// CompleteStage never skips: the returned next stage is always the immediate
// successor in canonical order.
func TestCompleteStage_AdvancesToImmediateSuccessor(t *testing.T) {
	ctx := context.Background()

	for _, stage := range domain.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			svc := newTestService(t)
			session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
			require.NoError(t, err)

			result, err := svc.CompleteStage(ctx, session.ID, stage, nil, 100)
			require.NoError(t, err)

			expectedNext, hasNext := stage.Next()
			if hasNext {
				assert.Equal(t, expectedNext, result.NextStage)
				assert.Equal(t, expectedNext, result.Session.Stage)
				assert.False(t, result.SessionCompleted)
				assert.Equal(t, domain.ProgressInProgress, result.Session.Progress[expectedNext].Status)
			} else {
				assert.Empty(t, result.NextStage)
				assert.True(t, result.SessionCompleted)
				assert.Equal(t, domain.StatusCompleted, result.Session.Status)
			}

			progress := result.Session.Progress[stage]
			assert.Equal(t, domain.ProgressCompleted, progress.Status)
			require.NotNil(t, progress.CompletedAt)
			assert.Equal(t, 100, progress.CompletionScore)
		})
	}
}

func TestCompleteStage_ClampsScore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	result, err := svc.CompleteStage(ctx, session.ID, domain.StageProblemFraming, nil, 250)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Session.Progress[domain.StageProblemFraming].CompletionScore)
}

func TestAddResearchData_UnknownBucketIsNoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	record := domain.ResearchQuery{Query: "who else does this", Provider: "search", Success: true}
	result, err := svc.AddResearchData(ctx, session.ID, "press-clippings", record)
	require.NoError(t, err, "unknown bucket is a soft-fail, not an error")
	assert.Zero(t, result.Research.Total())

	// A valid bucket records and persists.
	result, err = svc.AddResearchData(ctx, session.ID, domain.BucketCompetitiveAnalysis, record)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Research.Total())
	require.Len(t, result.Research.CompetitiveAnalysis, 1)
	assert.False(t, result.Research.CompetitiveAnalysis[0].Timestamp.IsZero(), "records are timestamped")
}

func TestDiscoveryWorkflow_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "E-commerce Platform", domain.SessionMetadata{})
	require.NoError(t, err)

	_, err = svc.AddResearchData(ctx, session.ID, domain.BucketMarketAnalysis, domain.ResearchQuery{
		Query:    "e-commerce market size 2025",
		Provider: "search",
		Success:  true,
	})
	require.NoError(t, err)

	_, err = svc.CompleteStage(ctx, session.ID, domain.StageMarketResearch, map[string]any{
		"competitors":   []any{map[string]any{"name": "Shopify"}},
		"marketSize":    "$5T global",
		"opportunities": []any{"niche B2B segments"},
		"threats":       []any{"platform consolidation"},
	}, 85)
	require.NoError(t, err)

	_, err = svc.CompleteStage(ctx, session.ID, domain.StageTechnicalFeasibility, map[string]any{
		"recommendedStack": map[string]any{"backend": "Go", "database": "PostgreSQL"},
		"architecture":     "modular monolith with event-driven checkout",
		"complexity":       map[string]any{"backend": "medium"},
		"risks":            []any{"payment integration"},
	}, 90)
	require.NoError(t, err)

	result, err := svc.CompleteStage(ctx, session.ID, domain.StageRequirementsSynthesis, map[string]any{
		"functionalRequirements": []any{
			map[string]any{"id": "FR-1", "title": "Product catalog"},
			map[string]any{"id": "FR-2", "title": "Shopping cart"},
			map[string]any{"id": "FR-3", "title": "Checkout"},
			map[string]any{"id": "FR-4", "title": "Order tracking"},
			map[string]any{"id": "FR-5", "title": "User accounts"},
		},
		"nonFunctionalRequirements": []any{
			map[string]any{"id": "NFR-1", "title": "Sub-second page loads"},
			map[string]any{"id": "NFR-2", "title": "PCI compliance"},
			map[string]any{"id": "NFR-3", "title": "99.9% uptime"},
		},
	}, 100)
	require.NoError(t, err)

	final := result.Session
	assert.Equal(t, domain.StatusActive, final.Status)
	assert.Equal(t, domain.StagePRDGeneration, final.Stage)
	assert.Equal(t, domain.ProgressCompleted, final.Progress[domain.StageRequirementsSynthesis].Status)
	assert.Equal(t, 100, final.Progress[domain.StageRequirementsSynthesis].CompletionScore)
	assert.Len(t, final.Research.MarketAnalysis, 1)
}

func TestEnsureReadyForGeneration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "invoicer", domain.SessionMetadata{})
	require.NoError(t, err)

	err = EnsureReadyForGeneration(session)
	assert.ErrorIs(t, err, domain.ErrRequirementsIncomplete)

	result, err := svc.CompleteStage(ctx, session.ID, domain.StageRequirementsSynthesis, map[string]any{
		"functionalRequirements": []any{map[string]any{"id": "FR-1", "title": "Upload"}},
	}, 100)
	require.NoError(t, err)

	assert.NoError(t, EnsureReadyForGeneration(result.Session))
	assert.Error(t, EnsureReadyForGeneration(nil))
}
