package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qslice/pipedeck/internal/domain"
)

func ev(typ string, data map[string]any) domain.PipelineEvent {
	return domain.PipelineEvent{Type: typ, Data: data}
}

func TestBufferAppendOrder(t *testing.T) {
	b := NewBuffer()
	b.Append(ev(domain.EventAgentStart, map[string]any{"agent": "router"}))
	b.Append(ev(domain.EventRouting, map[string]any{"category": "RETURNS"}))
	b.Append(ev("telemetry", nil))

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, domain.EventAgentStart, snap[0].Type)
	assert.Equal(t, domain.EventRouting, snap[1].Type)
	assert.Equal(t, "telemetry", snap[2].Type)
}

func TestBufferExcludesDone(t *testing.T) {
	b := NewBuffer()
	b.Append(ev(domain.EventAgentStart, nil))
	b.Append(ev(domain.EventDone, map[string]any{"response": "bye"}))

	require.Equal(t, 1, b.Len())
	assert.Equal(t, domain.EventAgentStart, b.Snapshot()[0].Type)
}

func TestBufferResetIdempotent(t *testing.T) {
	b := NewBuffer()
	b.Append(ev(domain.EventAgentStart, nil))

	b.Reset()
	assert.Zero(t, b.Len())
	b.Reset()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Snapshot())
}

func TestSnapshotIsolatedFromAppend(t *testing.T) {
	b := NewBuffer()
	b.Append(ev(domain.EventAgentStart, nil))
	snap := b.Snapshot()
	b.Append(ev(domain.EventRouting, nil))

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, b.Len())
}
