package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionOnlyToImmediateSuccessor(t *testing.T) {
	cases := []struct {
		from, to Stage
		want     bool
	}{
		{StagePending, StageProcessing, true},
		{StageProcessing, StageDelivering, true},
		{StageDelivering, StageCompleted, true},
		{StagePending, StageDelivering, false},
		{StagePending, StageCompleted, false},
		{StageDelivering, StageProcessing, false},
		{StageCompleted, StagePending, false},
		{StageCompleted, StageCompleted, false},
		{StagePending, StagePending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNewTrackerSeedsPendingHistory(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(at, 72*time.Hour)

	require.Len(t, tr.History, 1)
	assert.Equal(t, StagePending, tr.Status)
	assert.Equal(t, StagePending.Description(), tr.History[0].Description)
	assert.Equal(t, at.Add(72*time.Hour), tr.EstimatedDelivery)
	assert.NoError(t, tr.Validate())
}

func TestAdvanceAppendsHistory(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(at, time.Hour)

	require.NoError(t, tr.Advance(StageProcessing, at.Add(time.Minute), "brewing"))
	require.NoError(t, tr.Advance(StageDelivering, at.Add(2*time.Minute), ""))

	assert.Equal(t, StageDelivering, tr.Status)
	require.Len(t, tr.History, 3)
	assert.Equal(t, "brewing", tr.History[1].Description)
	assert.Equal(t, StageDelivering.Description(), tr.History[2].Description)

	latest, ok := tr.Latest()
	require.True(t, ok)
	assert.Equal(t, tr.Status, latest.Status)
	assert.NoError(t, tr.Validate())
}

func TestAdvanceRejectsSkipsAndLeavesTrackerUntouched(t *testing.T) {
	tr := NewTracker(time.Now(), time.Hour)

	err := tr.Advance(StageCompleted, time.Now(), "")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StagePending, tr.Status)
	assert.Len(t, tr.History, 1)
}

func TestCompletedIsTerminal(t *testing.T) {
	at := time.Now()
	tr := NewTracker(at, time.Hour)
	for _, s := range []Stage{StageProcessing, StageDelivering, StageCompleted} {
		require.NoError(t, tr.Advance(s, at, ""))
	}

	assert.True(t, tr.Status.Terminal())
	assert.ErrorIs(t, tr.Advance(StagePending, at, ""), ErrInvalidTransition)
}

func TestAdvanceClampsEarlierTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(at, time.Hour)

	require.NoError(t, tr.Advance(StageProcessing, at.Add(-time.Hour), ""))

	assert.Equal(t, at, tr.History[1].Timestamp)
	assert.NoError(t, tr.Validate())
}

func TestValidateDetectsMismatchedStatus(t *testing.T) {
	tr := NewTracker(time.Now(), time.Hour)
	tr.Status = StageProcessing

	assert.Error(t, tr.Validate())
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage(" Delivering ")
	require.NoError(t, err)
	assert.Equal(t, StageDelivering, s)

	_, err = ParseStage("lost")
	assert.ErrorIs(t, err, ErrUnknownStage)
}
