package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/services"
)

// mockPublisher records published event types and can be made to fail.
type mockPublisher struct {
	mu     sync.Mutex
	events []domain.EventType
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, eventType domain.EventType, _ domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, eventType)
	return nil
}

func (m *mockPublisher) Events() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EventType(nil), m.events...)
}

// newTestServer builds a server over a real task service backed by memory.
func newTestServer() (*Server, *mockPublisher) {
	publisher := &mockPublisher{}
	server, err := NewServer(&Ports{
		Tasks: services.NewTaskService(memory.NewTaskStore(), publisher),
	})
	if err != nil {
		panic(err)
	}
	return server, publisher
}

func strPtr(s string) *string { return &s }
