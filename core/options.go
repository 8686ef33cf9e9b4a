package voicesession

import (
	"time"

	"github.com/HuntCodes/yugen-voice/core/audio"
	"github.com/HuntCodes/yugen-voice/core/coaching"
	"github.com/HuntCodes/yugen-voice/core/events"
	"github.com/HuntCodes/yugen-voice/core/realtime"
	"github.com/HuntCodes/yugen-voice/core/tools"
	"github.com/HuntCodes/yugen-voice/core/transport"
)

type SessionOption func(*Session)

// WithTransportFactory replaces the transport used to reach the realtime
// endpoint. The factory is invoked once per connection attempt so that a
// reconnect always starts from a fresh transport.
func WithTransportFactory(factory func() transport.Transport) SessionOption {
	return func(s *Session) {
		if factory != nil {
			s.newTransport = factory
		}
	}
}

func WithAudioCoordinator(coordinator *audio.Coordinator) SessionOption {
	return func(s *Session) { s.audio = coordinator }
}

func WithTools(toolset ...tools.Tool) SessionOption {
	return func(s *Session) {
		for _, tool := range toolset {
			if err := s.registry.Register(tool); err != nil {
				logger.Warn("skipping tool registration", "tool", tool.Name, "error", err)
			}
		}
	}
}

func WithChatStore(store coaching.ChatStore) SessionOption {
	return func(s *Session) { s.chat = store }
}

// WithOwner tags the session with the component that holds the global
// session slot. The tag shows up in conflict errors when another component
// tries to start a session while this one is active.
func WithOwner(ownerID string) SessionOption {
	return func(s *Session) {
		if ownerID != "" {
			s.ownerID = ownerID
		}
	}
}

func WithToolCallTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if timeout > 0 {
			s.toolTimeout = timeout
		}
	}
}

func WithSessionRefreshInterval(interval time.Duration) SessionOption {
	return func(s *Session) {
		if interval > 0 {
			s.refreshInterval = interval
		}
	}
}

func WithMaxReconnectAttempts(attempts int) SessionOption {
	return func(s *Session) {
		if attempts >= 0 {
			s.retry.maxAttempts = attempts
		}
	}
}

type StartOptions struct {
	instructions string
	voice        string
	greetingClip []byte

	onMessage               func(message Message)
	onSpeakingStateChanged  func(isSpeaking bool)
	onSessionStateChanged   func(state SessionState)
	onConnectionStateChange func(state transport.State)
	onFallback              func(reason string)
	onError                 func(err error)
	onEvent                 func(event events.Event)
}

type StartOption func(*StartOptions)

// WithInstructions sets the system prompt sent to the model as part of the
// session configuration once the event channel opens.
func WithInstructions(instructions string) StartOption {
	return func(o *StartOptions) { o.instructions = instructions }
}

func WithVoice(voice string) StartOption {
	return func(o *StartOptions) { o.voice = voice }
}

// WithGreetingClip plays a pre-recorded clip through the audio coordinator
// as soon as the session connects, covering the gap before the first coach
// response arrives.
func WithGreetingClip(clip []byte) StartOption {
	return func(o *StartOptions) { o.greetingClip = clip }
}

// WithMessageCallback registers a callback for every finalized transcript,
// coach and user alike, after it has been placed in the timeline.
func WithMessageCallback(callback func(message Message)) StartOption {
	return func(o *StartOptions) { o.onMessage = callback }
}

// WithSpeakingStateCallback registers a callback for coach speaking state
// transitions, driven by the remote audio buffer lifecycle events.
func WithSpeakingStateCallback(callback func(isSpeaking bool)) StartOption {
	return func(o *StartOptions) { o.onSpeakingStateChanged = callback }
}

func WithSessionStateCallback(callback func(state SessionState)) StartOption {
	return func(o *StartOptions) { o.onSessionStateChanged = callback }
}

func WithConnectionStateCallback(callback func(state transport.State)) StartOption {
	return func(o *StartOptions) { o.onConnectionStateChange = callback }
}

// WithFallbackCallback registers a callback invoked when the session gives
// up on voice entirely, so the caller can offer a text-based alternative.
func WithFallbackCallback(callback func(reason string)) StartOption {
	return func(o *StartOptions) { o.onFallback = callback }
}

func WithErrorCallback(callback func(err error)) StartOption {
	return func(o *StartOptions) { o.onError = callback }
}

// WithEventCallback registers a single sink for the typed session event
// stream. The stream is a superset of the dedicated callbacks; use it when
// one consumer wants everything in order.
func WithEventCallback(callback func(event events.Event)) StartOption {
	return func(o *StartOptions) { o.onEvent = callback }
}

func (o StartOptions) sessionConfig(registry *tools.Registry) realtime.SessionConfig {
	config := realtime.SessionConfig{
		Instructions:  o.instructions,
		Voice:         o.voice,
		TurnDetection: realtime.DefaultTurnDetection(),
	}
	for _, tool := range registry.List() {
		config.Tools = append(config.Tools, realtime.ToolDefinition{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return config
}
