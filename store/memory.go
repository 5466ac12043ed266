package store

import (
	"context"
	"sync"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

// Memory keeps users and bindings in process. It backs STORE_DRIVER=memory
// for local development and the service tests.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]map[string]any
	bindings map[string]string
	writes   int
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]map[string]any),
		bindings: make(map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, principalID string) (*models.SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.users[principalID]
	if !ok {
		return nil, nil
	}
	record, ok := doc["subscription"].(models.SubscriptionRecord)
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *Memory) Upsert(_ context.Context, principalID string, record models.SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.users[principalID]
	if !ok {
		doc = make(map[string]any)
		m.users[principalID] = doc
	}
	doc["subscription"] = record
	m.writes++
	return nil
}

// SetField writes an arbitrary user document field, standing in for data
// other parts of the product keep on the same document.
func (m *Memory) SetField(principalID, field string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.users[principalID]
	if !ok {
		doc = make(map[string]any)
		m.users[principalID] = doc
	}
	doc[field] = value
}

func (m *Memory) Field(principalID, field string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.users[principalID][field]
	return v, ok
}

// Writes counts Upsert calls. SetField is not counted.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) Bind(_ context.Context, sessionID, principalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[sessionID] = principalID
	return nil
}

func (m *Memory) Owner(_ context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.bindings[sessionID]
	if !ok {
		return "", ErrBindingNotFound
	}
	return owner, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
