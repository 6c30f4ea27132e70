package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tasker/internal/core/services"
)

func TestNewServer(t *testing.T) {
	t.Run("nil task service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingTaskService)
	})

	t.Run("nil ports returns error", func(t *testing.T) {
		_, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingTaskService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Tasks: services.NewTaskService(memory.NewTaskStore(), nil),
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func newServerForTest(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Tasks: services.NewTaskService(memory.NewTaskStore(), nil)})
	require.NoError(t, err)
	return server
}

func TestServer_Handler(t *testing.T) {
	assert.NotNil(t, newServerForTest(t).Handler())
}

func TestServer_RunHTTPReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, newServerForTest(t).RunHTTP(ctx, "127.0.0.1:0"))
}

func TestServer_RunHTTPInvalidAddress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, newServerForTest(t).RunHTTP(ctx, "not-an-address"))
}
