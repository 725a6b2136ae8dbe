package mocks

import (
	"context"
	"sync"

	"github.com/pulcova-api/internal/notifier"
	"github.com/pulcova-api/internal/service"
)

// MockNotifier records every message it is asked to send
type MockNotifier struct {
	mu   sync.Mutex
	Sent []notifier.Message
	Err  error
}

// Verify interface compliance
var (
	_ notifier.Notifier     = (*MockNotifier)(nil)
	_ service.AsyncNotifier = (*MockDispatcher)(nil)
)

func (m *MockNotifier) Notify(ctx context.Context, msg notifier.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return m.Err
}

func (m *MockNotifier) Name() string { return "mock" }

// Kinds returns the kinds of the recorded messages in order
func (m *MockNotifier) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.Sent))
	for _, msg := range m.Sent {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

// MockDispatcher records dispatched messages synchronously
type MockDispatcher struct {
	mu         sync.Mutex
	Dispatched []notifier.Message
	Reject     bool
}

func (m *MockDispatcher) Dispatch(msg notifier.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Reject {
		return false
	}
	m.Dispatched = append(m.Dispatched, msg)
	return true
}

// Kinds returns the kinds of the dispatched messages in order
func (m *MockDispatcher) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.Dispatched))
	for _, msg := range m.Dispatched {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}
