package clientstore

import (
	"context"
	"sync"
)

// Memory is an in-process Sessions backend used for local runs and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]string{}}
}

func (m *Memory) Session(id string) KV { return &memorySession{m: m, id: id} }

type memorySession struct {
	m  *Memory
	id string
}

func (s *memorySession) Get(_ context.Context, key string) (string, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	v, ok := s.m.data[s.id][key]
	return v, ok, nil
}

func (s *memorySession) Set(_ context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kv, ok := s.m.data[s.id]
	if !ok {
		kv = map[string]string{}
		s.m.data[s.id] = kv
	}
	kv[key] = value
	return nil
}

func (s *memorySession) Delete(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.data[s.id], key)
	return nil
}
