package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_InitialProgress(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session, err := NewSession("webshop", SessionMetadata{}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "webshop", session.ProjectName)
	assert.Equal(t, FirstStage, session.Stage)
	assert.Equal(t, StatusActive, session.Status)
	assert.Len(t, session.Progress, 5)

	for _, stage := range Stages() {
		progress := session.Progress[stage]
		require.NotNil(t, progress, "progress entry for %s", stage)
		if stage == FirstStage {
			assert.Equal(t, ProgressInProgress, progress.Status)
			require.NotNil(t, progress.StartedAt)
			assert.Equal(t, now, *progress.StartedAt)
		} else {
			assert.Equal(t, ProgressNotStarted, progress.Status)
			assert.Nil(t, progress.StartedAt)
		}
		assert.Zero(t, progress.CompletionScore)
		assert.Nil(t, progress.CompletedAt)
	}
}

func TestNewSession_RejectsBadProjectNames(t *testing.T) {
	now := time.Now()

	_, err := NewSession("", SessionMetadata{}, now)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "projectName")

	long := make([]byte, MaxProjectNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewSession(string(long), SessionMetadata{}, now)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeValidationError, ErrorCode(err))
}

func TestSession_Expired(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session, err := NewSession("webshop", SessionMetadata{}, created)
	require.NoError(t, err)

	timeout := 24 * time.Hour
	assert.False(t, session.Expired(created.Add(23*time.Hour), timeout))
	assert.False(t, session.Expired(created.Add(24*time.Hour), timeout))
	assert.True(t, session.Expired(created.Add(24*time.Hour+time.Second), timeout))
	assert.False(t, session.Expired(created.Add(1000*time.Hour), 0), "zero timeout disables expiry")
}

func TestStageProgress_MergeData(t *testing.T) {
	progress := &StageProgress{
		Data: map[string]any{
			"problemStatement": "old statement",
			"targetAudience":   "developers",
		},
	}

	progress.MergeData(map[string]any{
		"problemStatement": "new statement",
		"successCriteria":  []any{"criterion"},
	})

	assert.Equal(t, "new statement", progress.Data["problemStatement"])
	assert.Equal(t, "developers", progress.Data["targetAudience"], "untouched fields are preserved")
	assert.Equal(t, []any{"criterion"}, progress.Data["successCriteria"])
}

func TestResearchData_Append(t *testing.T) {
	var data ResearchData
	record := ResearchQuery{Query: "competitors of X", Provider: "search", Timestamp: time.Now()}

	for _, bucket := range Buckets() {
		assert.True(t, data.Append(bucket, record), "bucket %s", bucket)
		assert.Len(t, data.Bucket(bucket), 1)
	}
	assert.Equal(t, 4, data.Total())

	assert.False(t, data.Append("press-clippings", record), "unknown bucket is rejected")
	assert.Equal(t, 4, data.Total())
}

func TestErrorCode_Taxonomy(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrSessionNotFound, CodeSessionNotFound},
		{ErrSessionExists, CodeSessionExists},
		{ErrSessionExpired, CodeSessionExpired},
		{ErrSessionTerminal, CodeSessionTerminal},
		{ErrInvalidStage, CodeInvalidStage},
		{ErrRequirementsIncomplete, CodeRequirementsIncomplete},
		{ErrVersionConflict, CodeVersionConflict},
		{&ValidationError{Msg: "bad payload"}, CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}

	assert.Empty(t, ErrorCode(nil))
}
