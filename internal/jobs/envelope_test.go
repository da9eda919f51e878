package jobs

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTask_RoundTrip(t *testing.T) {
	task, err := NewEnvelopeTask("req-123")
	require.NoError(t, err)
	assert.Equal(t, TypeEnvelopeProcess, task.Type())

	payload, err := ParseEnvelopeTask(task)
	require.NoError(t, err)
	assert.Equal(t, "req-123", payload.RequestID)
}

func TestNewEnvelopeTask_RequiresRequestID(t *testing.T) {
	_, err := NewEnvelopeTask("")
	assert.Error(t, err)
}

func TestParseEnvelopeTask_WrongType(t *testing.T) {
	task := asynq.NewTask("other:type", []byte(`{}`))

	_, err := ParseEnvelopeTask(task)
	assert.Error(t, err)
}

func TestParseEnvelopeTask_InvalidPayload(t *testing.T) {
	task := asynq.NewTask(TypeEnvelopeProcess, []byte(`not json`))

	_, err := ParseEnvelopeTask(task)
	assert.Error(t, err)
}

func TestWebhookTask_RoundTrip(t *testing.T) {
	task, err := NewWebhookTask("req-456", "https://client.example.com/hook")
	require.NoError(t, err)
	assert.Equal(t, TypeWebhookDelivery, task.Type())

	payload, err := ParseWebhookTask(task)
	require.NoError(t, err)
	assert.Equal(t, "req-456", payload.RequestID)
	assert.Equal(t, "https://client.example.com/hook", payload.WebhookURL)
}

func TestNewWebhookTask_RequiresFields(t *testing.T) {
	_, err := NewWebhookTask("", "https://client.example.com/hook")
	assert.Error(t, err)

	_, err = NewWebhookTask("req-789", "")
	assert.Error(t, err)
}
