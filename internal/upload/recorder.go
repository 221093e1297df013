package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	// ErrPermissionDenied means the microphone permission was not granted;
	// capture must not start and the caller surfaces a notice instead of
	// failing silently.
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Permission asks the platform for microphone access.
type Permission interface {
	RequestMicrophone(ctx context.Context) (bool, error)
}

// CaptureDevice is the platform audio capture binding. Stop returns the
// captured bytes.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// Recorder runs one capture session at a time: permission gate, capture,
// elapsed tracking via a 1-second tick. The tick goroutine is torn down on
// Stop, on Close and when starting the device fails; a leaked ticker is a
// defect.
type Recorder struct {
	perm   Permission
	device CaptureDevice

	mu        sync.Mutex
	recording bool
	elapsed   time.Duration
	stopTick  chan struct{}
	clip      []byte
	clipName  string
}

func NewRecorder(perm Permission, device CaptureDevice) *Recorder {
	return &Recorder{perm: perm, device: device}
}

// Start acquires the microphone permission and begins capturing. Denied
// permission returns ErrPermissionDenied without touching the device.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}

	granted, err := r.perm.RequestMicrophone(ctx)
	if err != nil {
		return err
	}
	if !granted {
		return ErrPermissionDenied
	}

	if err := r.device.Start(ctx); err != nil {
		return err
	}

	r.recording = true
	r.elapsed = 0
	r.stopTick = make(chan struct{})
	go r.tick(r.stopTick)
	return nil
}

func (r *Recorder) tick(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			r.elapsed += time.Second
			r.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Stop cancels the tick, ends capture and retains the clip for submission.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, ErrNotRecording
	}

	close(r.stopTick)
	r.stopTick = nil
	r.recording = false

	data, err := r.device.Stop()
	if err != nil {
		return nil, err
	}

	r.clip = data
	r.clipName = fmt.Sprintf("recording_%d.m4a", time.Now().Unix())
	return data, nil
}

// Elapsed is the capture duration so far, at 1-second granularity.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Recording reports whether a capture session is running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Clip returns the retained recording, if any.
func (r *Recorder) Clip() ([]byte, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clip == nil {
		return nil, "", false
	}
	return r.clip, r.clipName, true
}

// Reset discards the retained clip. Called only after a successful submit, so
// a failed submit leaves the clip available for retry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clip = nil
	r.clipName = ""
	r.elapsed = 0
}

// Close tears down a running session without keeping the clip. Safe to call
// on unmount and on error paths regardless of state.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	close(r.stopTick)
	r.stopTick = nil
	r.recording = false
	if _, err := r.device.Stop(); err != nil {
		// Non-critical cleanup path: log and continue.
		log.Printf("error stopping capture device: %v", err)
	}
}
