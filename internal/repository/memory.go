package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

// MemoryStore keeps sessions in process memory for the dev server and CLI.
// Entries expire after the same TTL as the DynamoDB store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.WizardSession
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.WizardSession), now: time.Now}
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (domain.WizardSession, bool, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.TTL <= m.now().Unix() {
		return domain.WizardSession{}, false, nil
	}
	s.Transcript = slices.Clone(s.Transcript)
	s.Selection.Extras = slices.Clone(s.Selection.Extras)
	return s, true, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s domain.WizardSession) error {
	if s.ID == "" {
		return errors.New("repository: SaveSession: id is required")
	}
	s.TTL = m.now().Add(ttlDuration).Unix()
	s.Transcript = slices.Clone(s.Transcript)
	s.Selection.Extras = slices.Clone(s.Selection.Extras)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	for id, other := range m.sessions {
		if other.TTL <= m.now().Unix() {
			delete(m.sessions, id)
		}
	}
	return nil
}
