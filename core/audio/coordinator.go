package audio

import (
	"sync"
	"time"
)

// DefaultGuardWindow is how long the local microphone stays muted after coach
// playback starts, so the capture path does not pick up the coach's own voice.
const DefaultGuardWindow = 1500 * time.Millisecond

// NativeSession is the transport's own OS audio session. Activation and
// deactivation go through it exclusively; letting any other subsystem toggle
// session state silently kills live call audio.
type NativeSession interface {
	Activate() error
	Deactivate() error
}

// RouteController forces speakerphone output for the duration of the call.
type RouteController interface {
	OverrideSpeaker() error
	ClearOverride() error
}

// CaptureMuter gates the local microphone track.
type CaptureMuter interface {
	SetCaptureMuted(muted bool)
}

// ClipPlayer plays short pre-recorded clips. It is playback-only by contract:
// implementations must never activate or deactivate the OS audio session.
type ClipPlayer interface {
	Play(clip []byte) error
	Stop() error
}

// Coordinator arbitrates the native audio session, the clip player and the
// speakerphone route. One coordinator exists per voice session.
type Coordinator struct {
	session NativeSession
	route   RouteController
	mic     CaptureMuter
	clips   ClipPlayer

	guardWindow time.Duration

	mu          sync.Mutex
	guardTimer  *time.Timer
	deactivated bool
}

type CoordinatorOption func(*Coordinator)

func WithGuardWindow(window time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.guardWindow = window }
}

func WithClipPlayer(player ClipPlayer) CoordinatorOption {
	return func(c *Coordinator) { c.clips = player }
}

func NewCoordinator(session NativeSession, route RouteController, mic CaptureMuter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		session:     session,
		route:       route,
		mic:         mic,
		guardWindow: DefaultGuardWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate brings up the native session and forces speaker output.
func (c *Coordinator) Activate() error {
	if c.session != nil {
		if err := c.session.Activate(); err != nil {
			return err
		}
	}
	if c.route != nil {
		if err := c.route.OverrideSpeaker(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.deactivated = false
	c.mu.Unlock()
	return nil
}

// BindCaptureMuter points the guard window at the live connection's capture
// gate. Rebinding happens on every reconnect since each connection owns its
// own media tracks.
func (c *Coordinator) BindCaptureMuter(mic CaptureMuter) {
	c.mu.Lock()
	c.mic = mic
	c.mu.Unlock()
}

// BeginCoachSpeech mutes local capture for the guard window, then
// unconditionally unmutes. Re-entry cancels and reschedules the timer so the
// window always measures from the latest playback start.
func (c *Coordinator) BeginCoachSpeech() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mic != nil {
		c.mic.SetCaptureMuted(true)
	}
	if c.deactivated {
		return
	}
	if c.guardTimer != nil {
		c.guardTimer.Stop()
	}
	c.guardTimer = time.AfterFunc(c.guardWindow, func() {
		c.mu.Lock()
		mic := c.mic
		stale := c.deactivated
		c.mu.Unlock()
		if stale {
			return
		}
		if mic != nil {
			mic.SetCaptureMuted(false)
		}
	})
}

// PlayClip hands a short clip to the playback subsystem. The player never
// sees session state; a missing player is a silent no-op.
func (c *Coordinator) PlayClip(clip []byte) error {
	if c.clips == nil {
		return nil
	}
	return c.clips.Play(clip)
}

// Teardown deactivates the native session and clears routing overrides in a
// fixed order. Errors from either step are logged, not propagated; cleanup
// must proceed regardless.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	if c.deactivated {
		c.mu.Unlock()
		return
	}
	c.deactivated = true
	if c.guardTimer != nil {
		c.guardTimer.Stop()
		c.guardTimer = nil
	}
	mic := c.mic
	c.mu.Unlock()

	if mic != nil {
		mic.SetCaptureMuted(false)
	}
	if c.clips != nil {
		if err := c.clips.Stop(); err != nil {
			logger.Warn("failed to stop clip playback", "error", err)
		}
	}
	if c.session != nil {
		if err := c.session.Deactivate(); err != nil {
			logger.Warn("failed to deactivate audio session", "error", err)
		}
	}
	if c.route != nil {
		if err := c.route.ClearOverride(); err != nil {
			logger.Warn("failed to clear speaker override", "error", err)
		}
	}
}
