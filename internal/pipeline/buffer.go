// Package pipeline reconstructs a structured view of one agent
// pipeline run from the flat, arrival-ordered event stream.
package pipeline

import (
	"sync"

	"github.com/qslice/pipedeck/internal/domain"
)

// Buffer is the append-only log of events for the current turn. Events
// are kept in strict arrival order; nothing is reordered or deduped.
//
// Terminal "done" events are not retained: they finalize the assistant
// message upstream and play no part in section reconstruction.
type Buffer struct {
	mu     sync.Mutex
	events []domain.PipelineEvent
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds an event to the log.
func (b *Buffer) Append(ev domain.PipelineEvent) {
	if ev.Type == domain.EventDone {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

// Reset clears the buffer between turns.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

// Snapshot returns the current ordered event sequence.
func (b *Buffer) Snapshot() []domain.PipelineEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.PipelineEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
