package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brokermem "github.com/custodia-labs/tasker/internal/adapters/driven/broker/memory"
	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/logger"
)

func newRecordingNotifier() (*Notifier, *[]string) {
	var lines []string
	n := &Notifier{record: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}
	return n, &lines
}

func TestNotifier_TaskCreated(t *testing.T) {
	n, lines := newRecordingNotifier()
	envelope := domain.NewEnvelope(domain.EventTaskCreated, domain.Task{ID: "id-1", Title: "Write documentation", Status: domain.StatusOpen}, time.Now())

	require.NoError(t, n.TaskCreated(context.Background(), envelope))

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "[notify]")
	assert.Contains(t, (*lines)[0], "Write documentation")
	assert.Contains(t, (*lines)[1], "[analytics]")
}

func TestNotifier_TaskCompleted(t *testing.T) {
	n, lines := newRecordingNotifier()
	envelope := domain.NewEnvelope(domain.EventTaskCompleted, domain.Task{ID: "id-1", Title: "Ship"}, fixedNow())

	require.NoError(t, n.TaskCompleted(context.Background(), envelope))

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "completed")
	assert.Contains(t, (*lines)[1], "[email]")
	assert.Contains(t, (*lines)[1], "2025-03-04T04:06:07.891Z")
}

func TestNotifier_WrongType(t *testing.T) {
	n, lines := newRecordingNotifier()

	err := n.TaskCreated(context.Background(), domain.Envelope{Type: domain.EventTaskCompleted})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = n.TaskCompleted(context.Background(), domain.Envelope{Type: domain.EventTaskCreated})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, *lines)
}

func TestNotifier_EndToEnd(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	}()

	b := brokermem.NewBroker()
	consumer := NewEventConsumer(b, domain.DefaultTopology())
	NewNotifier().Register(consumer)
	require.NoError(t, consumer.Start(context.Background()))
	defer func() { _ = consumer.Stop() }()

	service := NewTaskService(memory.NewTaskStore(), newTestPublisher(b))
	ctx := context.Background()
	task, err := service.Create(ctx, domain.TaskInput{Title: str("Write documentation")})
	require.NoError(t, err)
	_, err = service.Update(ctx, task.ID, domain.TaskInput{Status: str("completed")})
	require.NoError(t, err)

	settlements := waitForSettlements(t, b, 2)
	for _, s := range settlements {
		assert.True(t, s.Acked)
	}
	require.NoError(t, consumer.Stop())

	out := buf.String()
	assert.Contains(t, out, "[notify] new task \"Write documentation\"")
	assert.Contains(t, out, "[email] completion summary for task "+task.ID)
}
