// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*: lifecycle of the voice session as a whole.
//   - connection.*: transport-level connectivity and recovery.
//   - speech.*: who is audibly speaking right now.
//   - conversation.*: finalized transcripts and deferred input handling.
//   - tool_call.*: structured function call execution.
//
// Every event carries the wall-clock time it was constructed at; consumers
// ordering conversation events should prefer the explicit timestamps carried
// on conversation.message_recorded over arrival order.
package events
