// Package webrtc implements the realtime transport over a pion peer
// connection: one audio track pair plus a data channel carrying the JSON
// protocol events.
package webrtc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/HuntCodes/yugen-voice/core/transport"
)

const dataChannelLabel = "oai-events"

// DefaultSignalingURL is the realtime SDP exchange endpoint.
const DefaultSignalingURL = "https://api.openai.com/v1/realtime"

type Client struct {
	signalingURL string
	remoteAudio  func(track *pion.TrackRemote)

	mu         sync.Mutex
	pc         *pion.PeerConnection
	dc         *pion.DataChannel
	audioTrack *pion.TrackLocalStaticSample

	muted  atomic.Bool
	closed atomic.Bool

	closeOnce sync.Once
}

var _ transport.Transport = (*Client)(nil)

type ClientOption func(*Client)

// WithRemoteAudioHandler receives the remote audio track once negotiated.
// Without a handler the track is drained and discarded; rendering is owned by
// the host platform.
func WithRemoteAudioHandler(handler func(track *pion.TrackRemote)) ClientOption {
	return func(c *Client) { c.remoteAudio = handler }
}

func NewClient(signalingURL string, opts ...ClientOption) *Client {
	c := &Client{signalingURL: signalingURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect performs the full negotiation: peer connection and data channel
// creation, local audio track, SDP offer, signaling exchange, remote answer.
// Exactly one peer-connection/data-channel pair exists per client.
func (c *Client) Connect(ctx context.Context, credentials transport.Credentials, callbacks transport.Callbacks) error {
	ctx, span := tracer.Start(ctx, "connect peer connection")
	defer span.End()

	c.mu.Lock()
	if c.pc != nil {
		c.mu.Unlock()
		return fmt.Errorf("transport already connected")
	}
	c.mu.Unlock()

	pc, err := pion.NewPeerConnection(pion.Configuration{})
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	audioTrack, err := pion.NewTrackLocalStaticSample(
		pion.RTPCodecCapability{MimeType: pion.MimeTypeOpus},
		"audio", "yugen-voice",
	)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to create local audio track: %w", err)
	}
	if _, err := pc.AddTrack(audioTrack); err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to add local audio track: %w", err)
	}

	dc, err := pc.CreateDataChannel(dataChannelLabel, nil)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to create data channel: %w", err)
	}

	if callbacks.OnOpen != nil {
		dc.OnOpen(callbacks.OnOpen)
	}
	if callbacks.OnEvent != nil {
		dc.OnMessage(func(msg pion.DataChannelMessage) {
			callbacks.OnEvent(msg.Data)
		})
	}

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		if callbacks.OnStateChange != nil {
			callbacks.OnStateChange(mapState(state))
		}
	})

	pc.OnTrack(func(track *pion.TrackRemote, _ *pion.RTPReceiver) {
		if c.remoteAudio != nil {
			c.remoteAudio(track)
			return
		}
		// Keep the receive buffers flowing even when nobody renders.
		go func() {
			for {
				if _, _, err := track.ReadRTP(); err != nil {
					return
				}
			}
		}()
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to set local description: %w", err)
	}

	select {
	case <-pion.GatheringCompletePromise(pc):
	case <-ctx.Done():
		_ = pc.Close()
		return fmt.Errorf("candidate gathering aborted: %w", ctx.Err())
	}

	answer, err := c.exchangeSDP(ctx, pc.LocalDescription().SDP, credentials)
	if err != nil {
		_ = pc.Close()
		return err
	}

	if err := pc.SetRemoteDescription(pion.SessionDescription{
		Type: pion.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		_ = pc.Close()
		return fmt.Errorf("failed to apply remote answer: %w", err)
	}

	c.mu.Lock()
	c.pc = pc
	c.dc = dc
	c.audioTrack = audioTrack
	c.mu.Unlock()

	return nil
}

// Send writes one protocol event to the data channel.
func (c *Client) Send(event []byte) error {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()

	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return fmt.Errorf("data channel is not open")
	}
	if err := dc.Send(event); err != nil {
		return fmt.Errorf("failed to send over data channel: %w", err)
	}
	return nil
}

// SendAudio writes one captured audio sample to the local track. Frames are
// silently dropped while capture is muted.
func (c *Client) SendAudio(frame []byte, duration time.Duration) error {
	if c.muted.Load() {
		return nil
	}

	c.mu.Lock()
	track := c.audioTrack
	c.mu.Unlock()

	if track == nil {
		return fmt.Errorf("local audio track is not negotiated")
	}
	if err := track.WriteSample(media.Sample{Data: frame, Duration: duration}); err != nil {
		return fmt.Errorf("failed to write audio sample: %w", err)
	}
	return nil
}

func (c *Client) SetCaptureMuted(muted bool) {
	c.muted.Store(muted)
}

// Close releases the data channel and peer connection and nulls all handles.
// Safe to call from multiple concurrent triggers.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		dc := c.dc
		pc := c.pc
		c.dc = nil
		c.pc = nil
		c.audioTrack = nil
		c.mu.Unlock()

		if dc != nil {
			if err := dc.Close(); err != nil {
				logger.Warn("failed to close data channel", "error", err)
			}
		}
		if pc != nil {
			if err := pc.Close(); err != nil {
				closeErr = fmt.Errorf("failed to close peer connection: %w", err)
			}
		}
	})
	return closeErr
}

func mapState(state pion.PeerConnectionState) transport.State {
	switch state {
	case pion.PeerConnectionStateNew:
		return transport.StateNew
	case pion.PeerConnectionStateConnecting:
		return transport.StateConnecting
	case pion.PeerConnectionStateConnected:
		return transport.StateConnected
	case pion.PeerConnectionStateDisconnected:
		return transport.StateDisconnected
	case pion.PeerConnectionStateFailed:
		return transport.StateFailed
	case pion.PeerConnectionStateClosed:
		return transport.StateClosed
	}
	return transport.StateNew
}
