package voicesession

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// cleanupConnection releases every per-connection resource in a fixed order:
// pending timers, in-flight tool handlers, the transport, then the platform
// audio session. Concurrent invocations collapse into one; the flag is
// re-armed by the next connection attempt.
func (s *Session) cleanupConnection() {
	if !s.cleaning.CompareAndSwap(false, true) {
		return
	}

	s.timers.cancelAll()
	s.executor.halt()

	s.mu.Lock()
	conn := s.transport
	s.transport = nil
	s.channelOpen = false
	s.activeResponseID = ""
	s.mu.Unlock()

	s.setCoachSpeaking(false)

	if conn != nil {
		if err := conn.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close transport during cleanup: %w", err)
			span := trace.SpanFromContext(s.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
			logger.Warn("failed to close transport during cleanup", "error", err)
		}
	}
	if s.audio != nil {
		s.audio.Teardown()
	}

	s.retry.noteCleanup()
	logger.Info("connection cleanup finished")
}
