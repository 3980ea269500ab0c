package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// MockTransport is a mock implementation of Transport
type MockTransport struct {
	SendFn func(ctx context.Context, topic string, env *Envelope) error
	sent   []sentEnvelope
}

type sentEnvelope struct {
	topic string
	env   *Envelope
}

func (m *MockTransport) Send(ctx context.Context, topic string, env *Envelope) error {
	m.sent = append(m.sent, sentEnvelope{topic: topic, env: env})
	if m.SendFn != nil {
		return m.SendFn(ctx, topic, env)
	}
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{}
	pub := NewPublisher(transport, "recurring-task-service", logger.Discard())

	env, res := pub.Publish(context.Background(), TopicTaskEvents, TypeTaskCreated, "user-1",
		TaskData{TaskID: 9, Title: "Next"},
		WithCorrelationID("corr-1"))

	require.True(t, res.Succeeded())
	require.NotNil(t, env)
	require.Len(t, transport.sent, 1)

	sent := transport.sent[0]
	assert.Equal(t, TopicTaskEvents, sent.topic)
	assert.Same(t, env, sent.env)
	assert.Equal(t, "recurring-task-service", env.Metadata.SourceService)
	assert.Equal(t, "corr-1", env.Metadata.CorrelationID)
	assert.Empty(t, env.Metadata.TriggerType)

	var data TaskData
	require.NoError(t, env.UnmarshalData(&data))
	assert.Equal(t, int64(9), data.TaskID)
}

func TestPublisher_PublishFailure(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{
		SendFn: func(ctx context.Context, topic string, env *Envelope) error {
			return errors.New("connection refused")
		},
	}
	pub := NewPublisher(transport, "api", logger.Discard())

	env, res := pub.Publish(context.Background(), TopicReminders, TypeReminderTriggered, "u", nil)

	assert.False(t, res.Succeeded())
	assert.NotNil(t, env)
	require.Error(t, res.AsError())
	assert.Contains(t, res.AsError().Error(), "connection refused")
}

func TestPublisher_BuildFailure(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{}
	pub := NewPublisher(transport, "api", logger.Discard())

	env, res := pub.Publish(context.Background(), TopicReminders, "", "u", nil)

	assert.Nil(t, env)
	assert.False(t, res.Succeeded())
	assert.Empty(t, transport.sent)
}

func TestPublisher_Helpers(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{}
	pub := NewPublisher(transport, "api", logger.Discard())
	ctx := context.Background()

	require.True(t, pub.PublishTaskCreated(ctx, "u", TaskData{TaskID: 1}).Succeeded())
	require.True(t, pub.PublishReminderScheduled(ctx, "u", ReminderData{TaskID: 1}).Succeeded())
	require.True(t, pub.PublishReminderTriggered(ctx, "u", ReminderData{TaskID: 1},
		WithTriggerType(TriggerScheduledJob)).Succeeded())

	require.Len(t, transport.sent, 3)
	assert.Equal(t, TopicTaskEvents, transport.sent[0].topic)
	assert.Equal(t, TypeTaskCreated, transport.sent[0].env.EventType)
	assert.Equal(t, TopicReminders, transport.sent[1].topic)
	assert.Equal(t, TypeReminderScheduled, transport.sent[1].env.EventType)
	assert.Equal(t, TypeReminderTriggered, transport.sent[2].env.EventType)
	assert.Equal(t, TriggerScheduledJob, transport.sent[2].env.Metadata.TriggerType)
}
