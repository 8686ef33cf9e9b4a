package voicesession

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HuntCodes/yugen-voice/core/tools"
)

type resultRecorder struct {
	mu      sync.Mutex
	results []map[string]any
	callIDs []string
	ch      chan map[string]any
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{ch: make(chan map[string]any, 8)}
}

func (r *resultRecorder) send(callID string, _ string, payload map[string]any) {
	r.mu.Lock()
	r.results = append(r.results, payload)
	r.callIDs = append(r.callIDs, callID)
	r.mu.Unlock()
	r.ch <- payload
}

func (r *resultRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func newTestExecutor(t *testing.T, recorder *resultRecorder, registered ...tools.Tool) *toolCallExecutor {
	t.Helper()
	registry, err := tools.NewRegistry(registered...)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return newToolCallExecutor(registry, recorder.send, nil)
}

func blockingTool(name string, release <-chan struct{}) tools.Tool {
	return tools.NewTool(name, "blocks until released",
		func(ctx context.Context, _ struct{}) (map[string]any, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return map[string]any{"message": "done"}, nil
		})
}

func TestExecuteSendsSuccessResultBeforeTimeout(t *testing.T) {
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder,
		tools.NewTool("adjust_workout", "adjust",
			func(context.Context, struct{}) (map[string]any, error) {
				return map[string]any{"message": "moved"}, nil
			}))

	executor.execute(context.Background(), "call_1", "adjust_workout", "{}")

	select {
	case payload := <-recorder.ch:
		if payload["status"] != "success" || payload["message"] != "moved" {
			t.Fatalf("unexpected payload: %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
	}

	if executor.busy() {
		t.Fatalf("expected busy cleared after resolution")
	}
}

func TestTimeoutSendsErrorAndLateResolutionIsNoop(t *testing.T) {
	release := make(chan struct{})
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder, blockingTool("slow_tool", release))
	executor.timeout = 50 * time.Millisecond

	executor.execute(context.Background(), "call_1", "slow_tool", "{}")

	select {
	case payload := <-recorder.ch:
		if payload["status"] != "error" {
			t.Fatalf("expected timeout error result, got %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for timeout result")
	}
	if executor.busy() {
		t.Fatalf("expected busy cleared after timeout")
	}

	// The tool resolving later must not produce a second result.
	close(release)
	time.Sleep(100 * time.Millisecond)
	if got := recorder.count(); got != 1 {
		t.Fatalf("expected exactly one result, got %d", got)
	}
}

func TestArgumentOnlyCallAgesOutAndClearsBusy(t *testing.T) {
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder)
	executor.timeout = 50 * time.Millisecond

	// Deltas stream in but the argument stream never finishes.
	executor.appendArguments("call_1", `{"reason":`)
	executor.appendArguments("call_1", `"cut"}`)
	if !executor.busy() {
		t.Fatalf("expected executor busy while deltas are pending")
	}

	select {
	case payload := <-recorder.ch:
		if payload["status"] != "error" {
			t.Fatalf("expected timeout error result, got %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for aged-out call to resolve")
	}
	if executor.busy() {
		t.Fatalf("expected busy cleared after the call aged out")
	}
}

func TestEveryCallResolvesExactlyOnceUnderConcurrency(t *testing.T) {
	recorder := newResultRecorder()
	recorder.ch = make(chan map[string]any, 64)
	executor := newTestExecutor(t, recorder,
		tools.NewTool("quick", "returns fast",
			func(context.Context, struct{}) (map[string]any, error) {
				return map[string]any{}, nil
			}))
	executor.timeout = 20 * time.Millisecond

	const calls = 20
	for i := 0; i < calls; i++ {
		executor.execute(context.Background(), callID(i), "quick", "{}")
	}

	deadline := time.After(2 * time.Second)
	for received := 0; received < calls; received++ {
		select {
		case <-recorder.ch:
		case <-deadline:
			t.Fatalf("timed out after %d results", received)
		}
	}

	time.Sleep(100 * time.Millisecond)
	if got := recorder.count(); got != calls {
		t.Fatalf("expected %d results exactly once each, got %d", calls, got)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	seen := map[string]bool{}
	for _, id := range recorder.callIDs {
		if seen[id] {
			t.Fatalf("call %s resolved twice", id)
		}
		seen[id] = true
	}
}

func callID(i int) string {
	return "call_" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestUnknownToolResolvesAsError(t *testing.T) {
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder)

	executor.execute(context.Background(), "call_1", "does_not_exist", "{}")

	select {
	case payload := <-recorder.ch:
		if payload["status"] != "error" {
			t.Fatalf("expected error result for unknown tool, got %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for unknown tool result")
	}
}

func TestArgumentDeltasAccumulatePerCall(t *testing.T) {
	var gotDate atomic.Value
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder,
		tools.NewTool("adjust_workout", "adjust",
			func(_ context.Context, parameters struct {
				Date string `json:"date"`
			}) (map[string]any, error) {
				gotDate.Store(parameters.Date)
				return map[string]any{}, nil
			}))

	executor.appendArguments("call_1", `{"da`)
	executor.appendArguments("call_1", `te":"2026-0`)
	executor.appendArguments("call_1", `9-02"}`)
	executor.execute(context.Background(), "call_1", "adjust_workout", "")

	select {
	case <-recorder.ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
	}

	if got, _ := gotDate.Load().(string); got != "2026-09-02" {
		t.Fatalf("expected accumulated arguments to decode, got %q", got)
	}
}

func TestHaltSuppressesPendingResolutions(t *testing.T) {
	release := make(chan struct{})
	recorder := newResultRecorder()
	executor := newTestExecutor(t, recorder, blockingTool("slow_tool", release))

	executor.execute(context.Background(), "call_1", "slow_tool", "{}")
	executor.halt()
	close(release)

	time.Sleep(100 * time.Millisecond)
	if got := recorder.count(); got != 0 {
		t.Fatalf("expected no results after halt, got %d", got)
	}
	if executor.busy() {
		t.Fatalf("expected halt to clear outstanding calls")
	}
}
