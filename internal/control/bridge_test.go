package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeCommitSeekConvertsToSeconds(t *testing.T) {
	eng := newFakeEngine()
	st := NewState()
	bridge := NewBridge(st, NewController(eng, nil), nil)

	sub, err := StartSampler(eng, st, DefaultSampleInterval, nil)
	require.NoError(t, err)
	defer sub.Close()

	eng.setDuration(120)
	bridge.CommitSeek(context.Background(), 0.5)

	require.Equal(t, []float64{60}, eng.seekCalls)
}

func TestBridgeCommitSeekClampsPosition(t *testing.T) {
	eng := newFakeEngine()
	st := NewState()
	bridge := NewBridge(st, NewController(eng, nil), nil)

	sub, err := StartSampler(eng, st, DefaultSampleInterval, nil)
	require.NoError(t, err)
	defer sub.Close()

	eng.setDuration(100)
	bridge.CommitSeek(context.Background(), 1.7)
	bridge.CommitSeek(context.Background(), -0.3)

	assert.Equal(t, []float64{100, 0}, eng.seekCalls)
}

func TestBridgeIgnoresCommitBeforeDurationKnown(t *testing.T) {
	eng := newFakeEngine()
	st := NewState()
	bridge := NewBridge(st, NewController(eng, nil), nil)

	// Duration not yet available: the commit is a silent no-op.
	bridge.CommitSeek(context.Background(), 0.5)

	assert.Empty(t, eng.seekCalls)
}

func TestSeekRoundTripConverges(t *testing.T) {
	eng := newFakeEngine()
	st := NewState()
	bridge := NewBridge(st, NewController(eng, nil), nil)

	sub, err := StartSampler(eng, st, DefaultSampleInterval, nil)
	require.NoError(t, err)
	defer sub.Close()

	eng.setDuration(120)

	// User grabs the control, commits the seek, releases. The next tick
	// samples the engine's post-seek clock back to the same position.
	st.SetSeeking(true)
	st.SetPosition(0.5)
	bridge.CommitSeek(context.Background(), 0.5)
	st.SetSeeking(false)

	cur, err := eng.CurrentTime(context.Background())
	require.NoError(t, err)
	eng.tick(cur)

	assert.InDelta(t, 0.5, st.Position(), 0.005)
}
