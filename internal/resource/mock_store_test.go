package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
)

// fetchCall records one Fetch or Write.
type fetchCall struct {
	template string
	args     datastore.Args
}

// mockStore answers fetches from a template-keyed table.
type mockStore struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	fetches   []fetchCall
	writes    []fetchCall
	writeErr  error

	// gate, when set, blocks Fetch until closed; entered is signalled first.
	gate    chan struct{}
	entered chan struct{}

	fetchCount atomic.Int32
}

func newMockStore() *mockStore {
	return &mockStore{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (m *mockStore) respond(template, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[template] = body
	delete(m.errs, template)
}

func (m *mockStore) fail(template string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[template] = err
}

func (m *mockStore) Fetch(_ context.Context, template string, args datastore.Args) (json.RawMessage, error) {
	m.fetchCount.Add(1)

	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.gate != nil {
		<-m.gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, fetchCall{template: template, args: args})
	if err := m.errs[template]; err != nil {
		return nil, err
	}
	body, ok := m.responses[template]
	if !ok {
		return nil, fmt.Errorf("mock: no response for %s", template)
	}
	return json.RawMessage(body), nil
}

func (m *mockStore) Write(_ context.Context, template string, args datastore.Args) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, fetchCall{template: template, args: args})
	return m.writeErr
}

func (m *mockStore) lastFetch() fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.fetches) == 0 {
		return fetchCall{}
	}
	return m.fetches[len(m.fetches)-1]
}

func (m *mockStore) writeCalls() []fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fetchCall(nil), m.writes...)
}
