package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC()
	env, err := NewEnvelope(TypeTaskCreated, "user-1", map[string]string{"k": "v"},
		Metadata{SourceService: "recurring-task-service"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, env.EventID)
	assert.Equal(t, TypeTaskCreated, env.EventType)
	assert.Equal(t, "user-1", env.UserID)
	assert.Equal(t, time.UTC, env.Timestamp.Location())
	assert.False(t, env.Timestamp.Before(before))
	assert.JSONEq(t, `{"k":"v"}`, string(env.Data))

	t.Run("nil data becomes empty object", func(t *testing.T) {
		env, err := NewEnvelope(TypeTaskDeleted, "u", nil, Metadata{SourceService: "s"})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(env.Data))
	})

	t.Run("event type required", func(t *testing.T) {
		_, err := NewEnvelope("", "u", nil, Metadata{})
		assert.True(t, errors.Is(err, ErrInvalidEnvelope))
	})

	t.Run("unmarshalable data", func(t *testing.T) {
		_, err := NewEnvelope(TypeTaskCreated, "u", make(chan int), Metadata{})
		assert.Error(t, err)
	})

	t.Run("fresh ids", func(t *testing.T) {
		other, err := NewEnvelope(TypeTaskCreated, "user-1", nil, Metadata{})
		require.NoError(t, err)
		assert.NotEqual(t, env.EventID, other.EventID)
	})
}

func TestEnvelope_RoundTripsWireFormat(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(TypeReminderTriggered, "user-2", nil, Metadata{
		SourceService: "api",
		TriggerType:   TriggerScheduledJob,
	})
	require.NoError(t, err)

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, key := range []string{"event_id", "event_type", "timestamp", "user_id", "data", "metadata"} {
		assert.Contains(t, raw, key)
	}
	meta := raw["metadata"].(map[string]interface{})
	assert.Equal(t, "scheduled_job", meta["trigger_type"])
	assert.NotContains(t, meta, "correlation_id")
}

func TestParseEnvelope(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, env *Envelope)
	}{
		{
			name: "full envelope",
			body: `{"event_id":"` + id.String() + `","event_type":"task.completed","timestamp":"2026-01-05T09:00:00Z",
				"user_id":"u1","data":{"task_id":4},"metadata":{"source_service":"api","correlation_id":"c-1"}}`,
			check: func(t *testing.T, env *Envelope) {
				assert.Equal(t, id, env.EventID)
				assert.Equal(t, TypeTaskCompleted, env.EventType)
				assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), env.Timestamp.UTC())
				assert.Equal(t, "c-1", env.Metadata.CorrelationID)
			},
		},
		{
			name: "naive timestamp is UTC",
			body: `{"event_id":"` + id.String() + `","event_type":"task.updated","timestamp":"2026-01-05T09:00:00.123456"}`,
			check: func(t *testing.T, env *Envelope) {
				assert.Equal(t, 2026, env.Timestamp.Year())
				assert.Equal(t, time.UTC, env.Timestamp.Location())
			},
		},
		{
			name: "null data becomes empty object",
			body: `{"event_id":"` + id.String() + `","event_type":"task.deleted","data":null}`,
			check: func(t *testing.T, env *Envelope) {
				assert.JSONEq(t, `{}`, string(env.Data))
			},
		},
		{
			name:    "not json",
			body:    `task completed`,
			wantErr: true,
		},
		{
			name:    "missing event id",
			body:    `{"event_type":"task.completed"}`,
			wantErr: true,
		},
		{
			name:    "missing event type",
			body:    `{"event_id":"` + id.String() + `"}`,
			wantErr: true,
		},
		{
			name:    "bad timestamp",
			body:    `{"event_id":"` + id.String() + `","event_type":"task.completed","timestamp":"yesterday"}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env, err := ParseEnvelope([]byte(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidEnvelope))
				return
			}
			require.NoError(t, err)
			tc.check(t, env)
		})
	}
}

func TestEnvelope_UnmarshalData(t *testing.T) {
	t.Parallel()

	env := &Envelope{EventType: TypeTaskCompleted, Data: json.RawMessage(`{"task_id":"oops-not-a-number"}`)}
	var data TaskData
	err := env.UnmarshalData(&data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidData))
}

func TestEnvelope_Correlation(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(TypeTaskCompleted, "u", nil, Metadata{SourceService: "api"})
	require.NoError(t, err)
	assert.Equal(t, env.EventID.String(), env.Correlation())

	env.Metadata.CorrelationID = "req-42"
	assert.Equal(t, "req-42", env.Correlation())
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2026-03-01T10:00:00Z",
		"2026-03-01T10:00:00",
		"2026-03-01 10:00:00",
		"2026-03-01 10:00:00+00:00",
		"2026-03-01T12:00:00+02:00",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s parsed as %s", s, got)
	}

	day, err := ParseTimestamp("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseTimestamp("March 1st")
	assert.Error(t, err)
}
