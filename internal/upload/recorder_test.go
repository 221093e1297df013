package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePermission struct {
	granted bool
	err     error
	asked   int
}

func (f *fakePermission) RequestMicrophone(ctx context.Context) (bool, error) {
	f.asked++
	return f.granted, f.err
}

type fakeDevice struct {
	data     []byte
	startErr error
	stopErr  error
	started  int
	stopped  int
}

func (f *fakeDevice) Start(ctx context.Context) error {
	f.started++
	return f.startErr
}

func (f *fakeDevice) Stop() ([]byte, error) {
	f.stopped++
	return f.data, f.stopErr
}

func TestRecorderStartStop(t *testing.T) {
	dev := &fakeDevice{data: []byte("clip")}
	r := NewRecorder(&fakePermission{granted: true}, dev)

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Recording())

	data, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("clip"), data)
	assert.False(t, r.Recording())

	clip, name, ok := r.Clip()
	require.True(t, ok)
	assert.Equal(t, []byte("clip"), clip)
	assert.Contains(t, name, "recording_")
	assert.Contains(t, name, ".m4a")
}

func TestRecorderPermissionDenied(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRecorder(&fakePermission{granted: false}, dev)

	err := r.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)

	// The device is never touched without permission.
	assert.Zero(t, dev.started)
	assert.False(t, r.Recording())
}

func TestRecorderDoubleStart(t *testing.T) {
	r := NewRecorder(&fakePermission{granted: true}, &fakeDevice{})
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRecording)
}

func TestRecorderStopWithoutStart(t *testing.T) {
	r := NewRecorder(&fakePermission{granted: true}, &fakeDevice{})
	_, err := r.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderElapsedTicks(t *testing.T) {
	r := NewRecorder(&fakePermission{granted: true}, &fakeDevice{})
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	assert.Equal(t, time.Duration(0), r.Elapsed())
	time.Sleep(1100 * time.Millisecond)
	assert.GreaterOrEqual(t, r.Elapsed(), time.Second)
}

func TestRecorderResetDiscardsClip(t *testing.T) {
	r := NewRecorder(&fakePermission{granted: true}, &fakeDevice{data: []byte("clip")})
	require.NoError(t, r.Start(context.Background()))
	_, err := r.Stop()
	require.NoError(t, err)

	r.Reset()
	_, _, ok := r.Clip()
	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), r.Elapsed())
}

func TestRecorderCloseStopsDevice(t *testing.T) {
	dev := &fakeDevice{stopErr: errors.New("device gone")}
	r := NewRecorder(&fakePermission{granted: true}, dev)
	require.NoError(t, r.Start(context.Background()))

	r.Close()
	assert.False(t, r.Recording())
	assert.Equal(t, 1, dev.stopped)

	// Close on an idle recorder is a no-op.
	r.Close()
	assert.Equal(t, 1, dev.stopped)
}
