package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

// memStore is an in-memory stand-in for storage.SQLiteRepository.
type memStore struct {
	mu       sync.Mutex
	users    map[string]storage.User
	sessions map[string]storage.SessionRecord
	states   map[string]storage.StoredState
	exports  []storage.ExportRecord

	saves     int
	conflicts int
	exportErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]storage.User{},
		sessions: map[string]storage.SessionRecord{},
		states:   map[string]storage.StoredState{},
	}
}

func (m *memStore) CreateUser(_ context.Context, login, hash string) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Login == login {
			return storage.User{}, storage.ErrLoginTaken
		}
	}
	u := storage.User{ID: fmt.Sprintf("user-%d", len(m.users)+1), Login: login, PasswordHash: hash}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByLogin(_ context.Context, login string) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Login == login {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrUserNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id string) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) ListUserIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.users))
	for i := 1; i <= len(m.users); i++ {
		ids = append(ids, fmt.Sprintf("user-%d", i))
	}
	return ids, nil
}

func (m *memStore) CreateSession(_ context.Context, token, userID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = storage.SessionRecord{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetSession(_ context.Context, token string) (storage.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return storage.SessionRecord{}, storage.ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *memStore) LoadState(_ context.Context, userID string) (storage.StoredState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	if !ok {
		return storage.StoredState{}, storage.ErrStateNotFound
	}
	return s, nil
}

func (m *memStore) SaveState(_ context.Context, userID string, data []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(userID, data), nil
}

func (m *memStore) SaveStateIfVersion(_ context.Context, userID string, data []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return 0, storage.ErrVersionConflict
	}
	if m.states[userID].Version != expected {
		return 0, storage.ErrVersionConflict
	}
	return m.putLocked(userID, data), nil
}

func (m *memStore) putLocked(userID string, data []byte) int64 {
	version := m.states[userID].Version + 1
	m.states[userID] = storage.StoredState{UserID: userID, Data: data, Version: version}
	m.saves++
	return version
}

func (m *memStore) RecordExport(_ context.Context, rec storage.ExportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exportErr != nil {
		return m.exportErr
	}
	m.exports = append(m.exports, rec)
	return nil
}

func (m *memStore) LastExport(_ context.Context, userID string, month core.MonthKey) (storage.ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.exports) - 1; i >= 0; i-- {
		if e := m.exports[i]; e.UserID == userID && e.Month == month {
			return e, nil
		}
	}
	return storage.ExportRecord{}, storage.ErrExportNotFound
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type published struct {
	UserID  string
	Version int64
	Month   core.MonthKey
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) PublishStateSaved(_ context.Context, userID string, version int64, month core.MonthKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{UserID: userID, Version: version, Month: month})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
