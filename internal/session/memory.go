package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stoneyard/shipment-bot/internal/form"
)

// Memory is an in-process Store. Entries expire ttl after their last save.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
	seen  map[string]time.Time
	ttl   time.Duration
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store. A zero ttl disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string][]byte),
		seen:  make(map[string]time.Time),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Memory) Load(_ context.Context, id string) (*form.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.items[id]
	if !ok || m.expired(id, m.now()) {
		m.drop(id)
		return form.NewConversation(id), nil
	}
	var c form.Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save stores a copy of c; later mutations of c are not visible until the
// next Save.
func (m *Memory) Save(_ context.Context, c *form.Conversation) error {
	now := m.now()
	c.UpdatedAt = now
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = data
	m.seen[c.ID] = now
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(id)
	return nil
}

// Sweep removes expired conversations and returns how many were dropped.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id := range m.items {
		if m.expired(id, now) {
			m.drop(id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored conversations.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) expired(id string, now time.Time) bool {
	return m.ttl > 0 && now.Sub(m.seen[id]) > m.ttl
}

func (m *Memory) drop(id string) {
	delete(m.items, id)
	delete(m.seen, id)
}
