package session

import (
	"context"
	"sync"
)

type MemoryStore struct {
	sessions sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, profile string) (*Session, error) {
	val, ok := m.sessions.Load(profile)
	if !ok {
		return nil, nil
	}
	s := *val.(*Session)
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, profile string, s *Session) error {
	cp := *s
	m.sessions.Store(profile, &cp)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, profile string) error {
	m.sessions.Delete(profile)
	return nil
}
