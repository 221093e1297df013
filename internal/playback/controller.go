package playback

import (
	"context"
	"sync"
	"time"
)

// SeekOffset is the fixed transport seek step.
const SeekOffset = 10 * time.Second

// Status is one playback-status push from the underlying player.
type Status struct {
	Position     time.Duration
	Duration     time.Duration
	Playing      bool
	JustFinished bool
}

// Player is the underlying audio binding. Load registers a status callback
// that keeps pushing until Release.
type Player interface {
	Load(ctx context.Context, url string, onStatus func(Status)) error
	Play() error
	Pause() error
	SetPosition(pos time.Duration) error
	Release() error
}

// State is the controller's transport state.
type State int

const (
	StateUnloaded State = iota
	StatePaused
	StatePlaying
	StateFinished
)

// Controller drives one audio source: load, transport controls, position and
// duration tracking from status pushes. The owning screen must call Close on
// dismissal, which releases the player resource and detaches the status
// subscription.
type Controller struct {
	player Player

	mu       sync.Mutex
	state    State
	gen      int // bumped per Load/Close so stale status pushes are ignored
	position time.Duration
	duration time.Duration
}

func NewController(p Player) *Controller {
	return &Controller{player: p}
}

// Load prepares a new source, paused at position zero. A previously loaded
// source is released first.
func (c *Controller) Load(ctx context.Context, url string) error {
	c.mu.Lock()
	if c.state != StateUnloaded {
		if err := c.player.Release(); err != nil {
			c.mu.Unlock()
			return err
		}
		c.state = StateUnloaded
	}
	c.gen++
	gen := c.gen
	c.position = 0
	c.duration = 0
	c.mu.Unlock()

	onStatus := func(st Status) { c.handleStatus(gen, st) }
	if err := c.player.Load(ctx, url, onStatus); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StatePaused
	c.mu.Unlock()
	return nil
}

func (c *Controller) handleStatus(gen int, st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state == StateUnloaded {
		return
	}
	c.position = st.Position
	if st.Duration > 0 {
		c.duration = st.Duration
	}
	switch {
	case st.JustFinished:
		c.state = StateFinished
	case st.Playing:
		c.state = StatePlaying
	case c.state == StatePlaying:
		c.state = StatePaused
	}
}

// Play resumes playback of the loaded source.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnloaded {
		return ErrNoSource
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.state = StatePlaying
	return nil
}

// Pause suspends playback.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnloaded {
		return ErrNoSource
	}
	if err := c.player.Pause(); err != nil {
		return err
	}
	c.state = StatePaused
	return nil
}

// TogglePlay flips between Playing and Paused.
func (c *Controller) TogglePlay() error {
	if c.CurrentState() == StatePlaying {
		return c.Pause()
	}
	return c.Play()
}

// Replay resets the position to zero and starts playing.
func (c *Controller) Replay() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnloaded {
		return ErrNoSource
	}
	if err := c.player.SetPosition(0); err != nil {
		return err
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.position = 0
	c.state = StatePlaying
	return nil
}

// SeekForward moves the position ahead by the fixed offset, clamped to the
// duration.
func (c *Controller) SeekForward() error {
	return c.seekBy(SeekOffset)
}

// SeekBackward moves the position back by the fixed offset, clamped to zero.
func (c *Controller) SeekBackward() error {
	return c.seekBy(-SeekOffset)
}

func (c *Controller) seekBy(delta time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnloaded {
		return ErrNoSource
	}

	pos := c.position + delta
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}

	if err := c.player.SetPosition(pos); err != nil {
		return err
	}
	c.position = pos
	return nil
}

// Position returns the current playback position.
func (c *Controller) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Duration returns the total duration reported by the player.
func (c *Controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// CurrentState returns the transport state.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases the player resource and detaches the status subscription.
// Safe to call when nothing is loaded.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnloaded {
		return nil
	}
	c.gen++
	c.state = StateUnloaded
	c.position = 0
	c.duration = 0
	return c.player.Release()
}
