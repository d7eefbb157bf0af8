// Package pipelineevents provides in-process, typed progress events for a
// pipeline run: stage transitions and resume decisions. It is adapted from
// tarsy's pkg/events — the same closed set of typed event-type constants
// delivered to subscribers — stripped of the WebSocket transport and
// Postgres NOTIFY/LISTEN fan-out tarsy needs for cross-pod delivery. A
// batch CLI has exactly one process and no other pods to notify, so the
// bus here is a plain fan-out over in-memory channels.
package pipelineevents

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// Event types (§4.2, §6 "progress reporting").
const (
	EventStageStarted     = "stage.started"
	EventStageCompleted   = "stage.completed"
	EventStageFailed      = "stage.failed"
	EventStageInterrupted = "stage.interrupted"
	EventResumeDecided    = "run.resume_decided"
	EventRunCompleted     = "run.completed"
)

// Event is one progress notification. Fields not relevant to Type are left
// zero-valued (e.g. Reason is only set for EventResumeDecided).
type Event struct {
	Type      string           `json:"type"`
	RunID     string           `json:"run_id"`
	Stage     models.StageName `json:"stage,omitempty"`
	Reason    models.ReasonCode `json:"reason,omitempty"`
	Err       string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Bus fans out published events to every current subscriber. The zero
// value is ready to use.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function. The channel is buffered so a slow or absent
// subscriber (e.g. no CLI progress listener attached) never blocks the
// pipeline on Publish.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	ch := make(chan Event, 64)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish delivers e to every current subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the caller — a
// progress event is advisory, never a correctness dependency (§9: no
// coroutine/async suspension inside a stage).
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// StageStarted publishes an EventStageStarted notification.
func (b *Bus) StageStarted(runID string, stage models.StageName) {
	b.Publish(Event{Type: EventStageStarted, RunID: runID, Stage: stage, Timestamp: time.Now().UTC()})
}

// StageCompleted publishes an EventStageCompleted notification.
func (b *Bus) StageCompleted(runID string, stage models.StageName) {
	b.Publish(Event{Type: EventStageCompleted, RunID: runID, Stage: stage, Timestamp: time.Now().UTC()})
}

// StageFailed publishes an EventStageFailed notification.
func (b *Bus) StageFailed(runID string, stage models.StageName, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.Publish(Event{Type: EventStageFailed, RunID: runID, Stage: stage, Err: msg, Timestamp: time.Now().UTC()})
}

// StageInterrupted publishes an EventStageInterrupted notification.
func (b *Bus) StageInterrupted(runID string, stage models.StageName) {
	b.Publish(Event{Type: EventStageInterrupted, RunID: runID, Stage: stage, Timestamp: time.Now().UTC()})
}

// ResumeDecided publishes the §4.2 resume decision for a run.
func (b *Bus) ResumeDecided(runID string, stage models.StageName, reason models.ReasonCode) {
	b.Publish(Event{Type: EventResumeDecided, RunID: runID, Stage: stage, Reason: reason, Timestamp: time.Now().UTC()})
}

// RunCompleted publishes the terminal success notification for a run.
func (b *Bus) RunCompleted(runID string) {
	b.Publish(Event{Type: EventRunCompleted, RunID: runID, Timestamp: time.Now().UTC()})
}
