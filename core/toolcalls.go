package voicesession

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/HuntCodes/yugen-voice/core/realtime"
	"github.com/HuntCodes/yugen-voice/core/tools"
)

const (
	defaultToolCallTimeout = 10 * time.Second
	defaultToolSettleDelay = 300 * time.Millisecond
)

// pendingToolCall tracks one structured function call from argument streaming
// until its single terminal resolution.
type pendingToolCall struct {
	callID    string
	name      string
	arguments strings.Builder
	timer     *time.Timer
}

// toolCallExecutor dispatches structured function calls against the registry.
// Multiple calls may be outstanding concurrently; resolution and timeout for
// one call id are mutually exclusive, and every call resolves exactly once.
type toolCallExecutor struct {
	registry   *tools.Registry
	sendResult func(callID string, name string, payload map[string]any)
	onResolved func()

	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingToolCall
	halted  bool
}

func newToolCallExecutor(registry *tools.Registry, sendResult func(string, string, map[string]any), onResolved func()) *toolCallExecutor {
	return &toolCallExecutor{
		registry:   registry,
		sendResult: sendResult,
		onResolved: onResolved,
		timeout:    defaultToolCallTimeout,
		pending:    make(map[string]*pendingToolCall),
	}
}

// appendArguments buffers one streamed argument delta for the call. The
// timeout is armed with the first delta: a call whose argument stream never
// finishes must still resolve rather than hold the session busy forever.
func (e *toolCallExecutor) appendArguments(callID string, delta string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return
	}
	call, ok := e.pending[callID]
	if !ok {
		call = &pendingToolCall{callID: callID}
		call.timer = time.AfterFunc(e.timeout, func() {
			e.resolve(callID, map[string]any{
				"status": string(realtime.StatusError),
				"error":  "tool call timed out",
			})
		})
		e.pending[callID] = call
	}
	call.arguments.WriteString(delta)
}

// busy reports whether any call is outstanding.
func (e *toolCallExecutor) busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending) > 0
}

// execute runs the named tool against the buffered (or provided) arguments.
// A fixed-budget timer races the execution; whichever finishes first becomes
// the call's single resolution.
func (e *toolCallExecutor) execute(ctx context.Context, callID string, functionName string, arguments string) {
	ctx, span := tracer.Start(ctx, "execute tool")
	span.SetAttributes(
		attribute.String("tool.name", functionName),
		attribute.String("tool.call_id", callID),
	)

	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		span.End()
		return
	}
	call, ok := e.pending[callID]
	if !ok {
		call = &pendingToolCall{callID: callID}
		e.pending[callID] = call
	}
	call.name = functionName
	if arguments == "" {
		arguments = call.arguments.String()
	}

	ctx, cancel := context.WithCancel(ctx)
	// Execution re-arms the budget; the delta-streaming timer is superseded.
	if call.timer != nil {
		call.timer.Stop()
	}
	call.timer = time.AfterFunc(e.timeout, func() {
		cancel()
		e.resolve(callID, map[string]any{
			"status": string(realtime.StatusError),
			"error":  "tool call timed out",
		})
	})
	e.mu.Unlock()

	go func() {
		defer span.End()
		defer cancel()

		tool, found := e.registry.Lookup(functionName)
		if !found {
			e.resolve(callID, map[string]any{
				"status": string(realtime.StatusError),
				"error":  "unknown tool: " + functionName,
			})
			return
		}

		payload, err := tool.Execute(ctx, arguments)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.resolve(callID, map[string]any{
				"status": string(realtime.StatusError),
				"error":  err.Error(),
			})
			return
		}

		result := map[string]any{"status": string(realtime.StatusSuccess)}
		for key, value := range payload {
			result[key] = value
		}
		e.resolve(callID, result)
	}()
}

// resolve sends the correlated result if the call is still outstanding.
// Removing the map entry under the lock is what makes resolution
// exactly-once: the loser of the race finds nothing and no-ops.
func (e *toolCallExecutor) resolve(callID string, payload map[string]any) {
	e.mu.Lock()
	call, ok := e.pending[callID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.pending, callID)
	if call.timer != nil {
		call.timer.Stop()
	}
	halted := e.halted
	e.mu.Unlock()

	if halted {
		return
	}

	e.sendResult(callID, call.name, payload)
	if e.onResolved != nil {
		e.onResolved()
	}
}

// resume lifts a halt once a fresh connection is established.
func (e *toolCallExecutor) resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.halted = false
}

// halt discards every outstanding call without sending results. Used by
// cleanup; later resolutions and timer fires are no-ops.
func (e *toolCallExecutor) halt() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.halted = true
	for callID, call := range e.pending {
		if call.timer != nil {
			call.timer.Stop()
		}
		delete(e.pending, callID)
	}
}
