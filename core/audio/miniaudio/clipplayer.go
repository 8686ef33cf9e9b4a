// Package miniaudio provides a malgo-backed clip player for short
// pre-recorded coaching clips (greetings, confirmation chimes). It satisfies
// audio.ClipPlayer and never touches OS audio session state; routing and
// activation belong to the coordinator.
package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/HuntCodes/yugen-voice/core/audio"
)

type ClipPlayer struct {
	audioContext *malgo.AllocatedContext
	ownsContext  bool
	device       *malgo.Device
	config       malgo.DeviceConfig

	pending   []byte
	pendingMu sync.Mutex

	mu sync.Mutex
}

var _ audio.ClipPlayer = (*ClipPlayer)(nil)

// NewClipPlayer initializes a playback-only device for raw PCM clips in the
// given encoding.
func NewClipPlayer(encoding audio.EncodingInfo) (*ClipPlayer, error) {
	if encoding.IsZero() {
		encoding = audio.DefaultEncodingInfo()
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	player := &ClipPlayer{audioContext: audioCtx, ownsContext: true}
	if err := player.initDevice(encoding); err != nil {
		player.Uninit()
		return nil, err
	}
	return player, nil
}

func (p *ClipPlayer) initDevice(encoding audio.EncodingInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sampleRate := uint32(encoding.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	p.config = malgo.DefaultDeviceConfig(malgo.Playback)
	p.config.SampleRate = sampleRate
	p.config.Playback.Format = format
	p.config.Playback.Channels = uint32(channels)
	p.config.Alsa.NoMMap = 1
	p.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	p.config.Periods = 4

	var err error
	if p.device, err = malgo.InitDevice(
		p.audioContext.Context,
		p.config,
		malgo.DeviceCallbacks{Data: p.feedDevice(bytesPerFrame)},
	); err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return nil
}

// Play queues a clip and starts the device if it is not already running.
func (p *ClipPlayer) Play(clip []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return fmt.Errorf("device not initialized")
	}

	p.pendingMu.Lock()
	p.pending = append(p.pending, clip...)
	p.pendingMu.Unlock()

	if !p.device.IsStarted() {
		if err := p.device.Start(); err != nil {
			return fmt.Errorf("failed to start playback device: %w", err)
		}
	}
	return nil
}

// Stop halts playback and drops any queued clip audio.
func (p *ClipPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return fmt.Errorf("device not initialized")
	}

	p.pendingMu.Lock()
	p.pending = nil
	p.pendingMu.Unlock()

	if p.device.IsStarted() {
		if err := p.device.Stop(); err != nil {
			return fmt.Errorf("failed to stop playback device: %w", err)
		}
	}
	return nil
}

func (p *ClipPlayer) Uninit() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		p.device.Uninit()
		p.device = nil
	}
	if p.ownsContext && p.audioContext != nil {
		_ = p.audioContext.Uninit()
		p.audioContext.Free()
		p.audioContext = nil
	}
}

func (p *ClipPlayer) feedDevice(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		p.pendingMu.Lock()
		defer p.pendingMu.Unlock()

		if len(p.pending) == 0 {
			return
		}
		if len(p.pending) < need {
			copy(pOutput, p.pending)
			p.pending = nil
			return
		}

		copy(pOutput, p.pending[:need])
		p.pending = p.pending[need:]
	}
}
