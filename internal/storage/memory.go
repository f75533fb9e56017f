package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type MemoryStore struct {
	mu     sync.Mutex
	photos map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{photos: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, name string, _ string, body io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[name] = buf.Bytes()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.photos, name)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) URL(_ context.Context, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

func (s *MemoryStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.photos))
	for name := range s.photos {
		names = append(names, name)
	}
	return names
}
