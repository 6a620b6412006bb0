package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/arium-client/internal/events"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

var errBroken = errors.New("broken pipe")

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	published  []message
	flushes    int
	drained    bool
	publishErr error
	drainErr   error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}

	f.published = append(f.published, message{subject: subject, data: data})

	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	f.flushes++

	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true

	return f.drainErr
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	publisher := events.NewPublisher(conn)

	completedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := publisher.Publish(context.Background(), arium.WorkflowEvent{
		Kind:        arium.WorkflowImport,
		Collection:  "portfolios",
		ID:          "job-1",
		State:       "finished",
		CompletedAt: completedAt,
	})
	require.NoError(t, err)
	require.Len(t, conn.published, 1)
	assert.Equal(t, "arium.workflows.import", conn.published[0].subject)
	assert.Zero(t, conn.flushes)

	var event arium.WorkflowEvent

	err = json.Unmarshal(conn.published[0].data, &event)
	require.NoError(t, err)
	assert.Equal(t, "job-1", event.ID)
	assert.Equal(t, "portfolios", event.Collection)
	assert.True(t, completedAt.Equal(event.CompletedAt))
}

func TestPublisher_Flush(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	publisher := events.NewPublisher(conn, events.WithFlush(true))

	err := publisher.Publish(context.Background(), arium.WorkflowEvent{Kind: arium.WorkflowCopy, ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, conn.flushes)
}

func TestPublisher_Errors(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{publishErr: errBroken, drainErr: errBroken}
	publisher := events.NewPublisher(conn)

	err := publisher.Publish(context.Background(), arium.WorkflowEvent{Kind: arium.WorkflowUpload, ID: "a1"})
	require.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "arium.workflows.upload")

	err = publisher.Close()
	require.ErrorIs(t, err, errBroken)
	assert.True(t, conn.drained)
}

func TestSubject(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "arium.workflows.calculation", events.Subject(arium.WorkflowCalc))
}

func TestNewNATSPublisher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := events.NewNATSPublisher(ctx, "nats://127.0.0.1:4222")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := events.NewNATSPublisher(ctx, "nats://127.0.0.1:1")
	require.Error(t, err)
}
