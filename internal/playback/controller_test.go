package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	onStatus func(Status)
	loads    []string
	position time.Duration
	playing  bool
	released int
	loadErr  error
}

func (f *fakePlayer) Load(ctx context.Context, url string, onStatus func(Status)) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loads = append(f.loads, url)
	f.onStatus = onStatus
	return nil
}

func (f *fakePlayer) Play() error  { f.playing = true; return nil }
func (f *fakePlayer) Pause() error { f.playing = false; return nil }

func (f *fakePlayer) SetPosition(pos time.Duration) error {
	f.position = pos
	return nil
}

func (f *fakePlayer) Release() error {
	f.released++
	return nil
}

func loaded(t *testing.T) (*Controller, *fakePlayer) {
	t.Helper()
	p := &fakePlayer{}
	c := NewController(p)
	require.NoError(t, c.Load(context.Background(), "https://cdn.example.com/a.m4a"))
	return c, p
}

func TestLoadStartsPausedAtZero(t *testing.T) {
	c, _ := loaded(t)
	assert.Equal(t, StatePaused, c.CurrentState())
	assert.Equal(t, time.Duration(0), c.Position())
}

func TestPlayPauseToggle(t *testing.T) {
	c, p := loaded(t)

	require.NoError(t, c.Play())
	assert.Equal(t, StatePlaying, c.CurrentState())
	assert.True(t, p.playing)

	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePaused, c.CurrentState())
	assert.False(t, p.playing)

	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePlaying, c.CurrentState())
}

func TestTransportWithoutSource(t *testing.T) {
	c := NewController(&fakePlayer{})
	assert.ErrorIs(t, c.Play(), ErrNoSource)
	assert.ErrorIs(t, c.Pause(), ErrNoSource)
	assert.ErrorIs(t, c.Replay(), ErrNoSource)
	assert.ErrorIs(t, c.SeekForward(), ErrNoSource)
	assert.ErrorIs(t, c.SeekBackward(), ErrNoSource)
}

func TestSeekBackwardClampsToZero(t *testing.T) {
	c, p := loaded(t)
	p.onStatus(Status{Position: 3 * time.Second, Duration: time.Minute})

	// 3s - 10s clamps to 0, it does not fail and does not wrap.
	require.NoError(t, c.SeekBackward())
	assert.Equal(t, time.Duration(0), c.Position())
	assert.Equal(t, time.Duration(0), p.position)
}

func TestSeekForwardClampsToDuration(t *testing.T) {
	c, p := loaded(t)
	p.onStatus(Status{Position: 55 * time.Second, Duration: time.Minute})

	require.NoError(t, c.SeekForward())
	assert.Equal(t, time.Minute, c.Position())
}

func TestReplayResetsAndPlays(t *testing.T) {
	c, p := loaded(t)
	p.onStatus(Status{Position: 42 * time.Second, Duration: time.Minute, JustFinished: true})
	assert.Equal(t, StateFinished, c.CurrentState())

	require.NoError(t, c.Replay())
	assert.Equal(t, StatePlaying, c.CurrentState())
	assert.Equal(t, time.Duration(0), c.Position())
	assert.True(t, p.playing)
}

func TestStatusPushesTrackPositionAndFinish(t *testing.T) {
	c, p := loaded(t)

	p.onStatus(Status{Position: 5 * time.Second, Duration: 30 * time.Second, Playing: true})
	assert.Equal(t, 5*time.Second, c.Position())
	assert.Equal(t, 30*time.Second, c.Duration())
	assert.Equal(t, StatePlaying, c.CurrentState())

	p.onStatus(Status{Position: 30 * time.Second, Duration: 30 * time.Second, JustFinished: true})
	assert.Equal(t, StateFinished, c.CurrentState())
}

func TestLoadReleasesPreviousSource(t *testing.T) {
	c, p := loaded(t)
	require.NoError(t, c.Load(context.Background(), "https://cdn.example.com/b.m4a"))

	assert.Equal(t, 1, p.released)
	assert.Equal(t, []string{"https://cdn.example.com/a.m4a", "https://cdn.example.com/b.m4a"}, p.loads)
	assert.Equal(t, StatePaused, c.CurrentState())
}

func TestStaleStatusIgnoredAfterReload(t *testing.T) {
	c, p := loaded(t)
	stale := p.onStatus

	require.NoError(t, c.Load(context.Background(), "https://cdn.example.com/b.m4a"))

	// A push from the released source must not disturb the new one.
	stale(Status{Position: 20 * time.Second, Duration: time.Minute, Playing: true})
	assert.Equal(t, time.Duration(0), c.Position())
	assert.Equal(t, StatePaused, c.CurrentState())
}

func TestCloseReleasesAndDetaches(t *testing.T) {
	c, p := loaded(t)
	stale := p.onStatus

	require.NoError(t, c.Close())
	assert.Equal(t, StateUnloaded, c.CurrentState())
	assert.Equal(t, 1, p.released)

	stale(Status{Position: 9 * time.Second, Playing: true})
	assert.Equal(t, StateUnloaded, c.CurrentState())
	assert.Equal(t, time.Duration(0), c.Position())

	// Close with nothing loaded is a no-op.
	require.NoError(t, c.Close())
	assert.Equal(t, 1, p.released)
}
