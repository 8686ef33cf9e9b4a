package voicesession

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HuntCodes/yugen-voice/core/events"
	"github.com/HuntCodes/yugen-voice/core/realtime"
)

// assumedWordsPerSecond backs the speech-start estimate for transcripts that
// arrive without any captured timing.
const assumedWordsPerSecond = 2.5

// enqueueEvent hands one raw data-channel message to the protocol goroutine.
// The transport read loop blocks here rather than dropping, so inbound
// ordering is preserved end to end.
func (s *Session) enqueueEvent(data []byte) {
	select {
	case <-s.closeCh:
	case s.events <- data:
	}
}

func (s *Session) processEvents() {
	for {
		select {
		case <-s.closeCh:
			return
		case data := <-s.events:
			event, err := realtime.ParseServerEvent(data)
			if err != nil {
				logger.Warn("dropping malformed server event", "error", err)
				continue
			}
			s.handleServerEvent(event)
		}
	}
}

// handleServerEvent dispatches one decoded protocol event. Correlation goes
// through the ids carried on the event, never through arrival order.
func (s *Session) handleServerEvent(event realtime.ServerEvent) {
	switch event.Type {
	case realtime.TypeSessionCreated, realtime.TypeSessionUpdated:
		logger.Info("realtime session acknowledged", "type", event.Type)

	case realtime.TypeResponseCreated:
		responseID := event.ResponseID
		if responseID == "" && event.Response != nil {
			responseID = event.Response.ID
		}
		s.mu.Lock()
		s.activeResponseID = responseID
		s.mu.Unlock()

	case realtime.TypeResponseDone:
		responseID := event.ResponseID
		if responseID == "" && event.Response != nil {
			responseID = event.Response.ID
		}
		s.mu.Lock()
		if responseID == "" || s.activeResponseID == responseID {
			s.activeResponseID = ""
		}
		s.mu.Unlock()
		s.maybeDrainQueue()

	case realtime.TypeOutputAudioBufferStarted:
		s.handleCoachSpeechStarted(event.ResponseID)

	case realtime.TypeOutputAudioBufferStopped:
		// A cancelled or interrupted turn may never deliver its transcript;
		// leftover timing records must not linger and mis-timestamp a later
		// uncorrelated transcript.
		s.mu.Lock()
		if event.ResponseID != "" {
			delete(s.speechStarts, event.ResponseID)
		}
		s.lastSpeechStart = time.Time{}
		s.mu.Unlock()

		s.setCoachSpeaking(false)
		s.maybeDrainQueue()

	case realtime.TypeInputSpeechStarted:
		s.handleUserSpeechStarted(event.ItemID)

	case realtime.TypeResponseAudioTranscriptDone:
		if event.Transcript == "" {
			return
		}
		timestamp := s.resolveSpeechStart(SenderCoach, event.ResponseID, event.ItemID, event.Transcript)
		s.recordMessage(SenderCoach, event.Transcript, timestamp)

	case realtime.TypeInputTranscriptionCompleted:
		s.handleUserTranscript(event)

	case realtime.TypeFunctionCallArgumentsDelta:
		if event.CallID != "" {
			s.executor.appendArguments(event.CallID, event.Delta)
		}

	case realtime.TypeFunctionCallArgumentsDone:
		if event.CallID == "" || event.Name == "" {
			logger.Warn("ignoring function call without id or name")
			return
		}
		s.emit(events.NewToolCallStarted(event.CallID, event.Name, event.Arguments))
		s.executor.execute(s.baseContext, event.CallID, event.Name, event.Arguments)

	case realtime.TypeError:
		s.handleErrorEvent(event.Error)

	default:
		logger.Debug("skipping unhandled server event", "type", event.Type)
	}
}

func (s *Session) handleCoachSpeechStarted(responseID string) {
	now := s.now()
	s.mu.Lock()
	if responseID != "" {
		s.speechStarts[responseID] = now
	}
	s.lastSpeechStart = now
	s.mu.Unlock()

	s.setCoachSpeaking(true)
	if s.audio != nil {
		s.audio.BeginCoachSpeech()
	}
}

func (s *Session) handleUserSpeechStarted(itemID string) {
	now := s.now()
	s.mu.Lock()
	if itemID != "" {
		s.speechStarts[itemID] = now
	}
	s.latestUserSpeechStart = now
	s.mu.Unlock()

	s.emit(events.NewUserSpeechStarted())
}

// handleUserTranscript routes a finalized user utterance: deferred while the
// coach is speaking or a tool is running, dispatched immediately otherwise.
func (s *Session) handleUserTranscript(event realtime.ServerEvent) {
	transcript := strings.TrimSpace(event.Transcript)
	if transcript == "" {
		return
	}

	if s.IsCoachSpeaking() || s.executor.busy() {
		s.queue.push(transcript)
		logger.Info("deferring user utterance", "queued", s.queue.len())
		s.emit(events.NewUserInputDeferred(transcript, s.queue.len()))
		return
	}

	timestamp := s.resolveSpeechStart(SenderUser, "", event.ItemID, transcript)
	s.recordMessage(SenderUser, transcript, timestamp)
	s.requestCoachTurn()
}

// dispatchQueuedUtterance replays one deferred utterance once the session
// goes quiet. Queued entries carry no correlation ids; timing falls back to
// the single-slot records or the word-count estimate.
func (s *Session) dispatchQueuedUtterance(text string) {
	s.emit(events.NewUserInputReplayed(text))
	timestamp := s.resolveSpeechStart(SenderUser, "", "", text)
	s.recordMessage(SenderUser, text, timestamp)
	s.requestCoachTurn()
}

// resolveSpeechStart picks the timestamp a transcript is ordered by. The id
// keyed records win; the single-slot records cover missing ids; as a last
// resort the start is estimated backwards from the word count.
func (s *Session) resolveSpeechStart(sender Sender, responseID string, itemID string, transcript string) time.Time {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{responseID, itemID} {
		if id == "" {
			continue
		}
		if timestamp, ok := s.speechStarts[id]; ok {
			delete(s.speechStarts, id)
			return timestamp
		}
	}

	if sender == SenderCoach && !s.lastSpeechStart.IsZero() {
		timestamp := s.lastSpeechStart
		s.lastSpeechStart = time.Time{}
		return timestamp
	}
	if sender == SenderUser && !s.latestUserSpeechStart.IsZero() {
		timestamp := s.latestUserSpeechStart
		s.latestUserSpeechStart = time.Time{}
		return timestamp
	}

	words := len(strings.Fields(transcript))
	estimate := time.Duration(float64(words) / assumedWordsPerSecond * float64(time.Second))
	if estimate < time.Second {
		estimate = time.Second
	}
	return now.Add(-estimate)
}

// recordMessage places a finalized transcript in the timeline, persists it
// and notifies the caller. Persistence runs off the protocol goroutine so a
// slow store never stalls event handling.
func (s *Session) recordMessage(sender Sender, text string, timestamp time.Time) {
	message := s.timeline.Insert(Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: timestamp,
	})

	if s.chat != nil {
		go func() {
			if err := s.chat.SaveMessage(s.baseContext, string(sender), text, timestamp); err != nil {
				logger.Warn("failed to persist message", "error", err)
			}
		}()
	}

	if s.options.onMessage != nil {
		s.options.onMessage(message)
	}
	s.emit(events.NewMessageRecorded(string(sender), text, timestamp))
}

// requestCoachTurn asks the remote party for a new response, unless one is
// already speaking or in flight.
func (s *Session) requestCoachTurn() {
	if s.isCoachBusy() {
		return
	}
	s.sendEvent(realtime.NewResponseCreate())
}

func (s *Session) coachOrToolBusy() bool {
	return s.IsCoachSpeaking() || s.executor.busy()
}

// maybeDrainQueue kicks the deferred-input drainer when there is anything to
// replay. The drainer itself re-checks the busy guards before each entry.
func (s *Session) maybeDrainQueue() {
	if s.queue.len() == 0 {
		return
	}
	go s.queue.drain(s.coachOrToolBusy, s.cleaning.Load, s.dispatchQueuedUtterance, s.settleDelay)
}

// sendToolResult delivers one correlated function call result.
func (s *Session) sendToolResult(callID string, name string, payload map[string]any) {
	if status, _ := payload["status"].(string); status == string(realtime.StatusError) {
		reason, _ := payload["error"].(string)
		s.emit(events.NewToolCallFailed(callID, name, reason))
	} else {
		s.emit(events.NewToolCallCompleted(callID, name))
	}
	s.sendEvent(realtime.NewFunctionCallOutput(callID, payload))
}

// onToolResolved runs after each tool resolution: once the settle delay
// passes and the session is quiet, the coach gets a fresh turn and deferred
// inputs are replayed.
func (s *Session) onToolResolved() {
	s.timers.schedule(timerToolSettle, defaultToolSettleDelay, func() {
		if !s.coachOrToolBusy() {
			s.requestCoachTurn()
		}
		s.maybeDrainQueue()
	})
}

// handleErrorEvent surfaces protocol errors. Credential and model rejections
// are unrecoverable and push the session to fallback; everything else is
// reported and the event stream keeps flowing.
func (s *Session) handleErrorEvent(detail *realtime.ErrorDetail) {
	if detail == nil {
		return
	}
	if isFatalProtocolError(detail) {
		go s.handleFailure(newFailure(FailureAuthorization, errors.New(detail.String())))
		return
	}
	s.reportError(fmt.Errorf("protocol error: %s", detail))
}

var fatalErrorMarkers = []string{
	"invalid_api_key",
	"invalid_request_error: auth",
	"authentication",
	"token expired",
	"model_not_found",
	"session_expired",
}

func isFatalProtocolError(detail *realtime.ErrorDetail) bool {
	text := strings.ToLower(detail.Type + ": " + detail.Code + " " + detail.Message)
	for _, marker := range fatalErrorMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
