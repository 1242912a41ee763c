package notepad

import (
	"slices"
	"sync"
)

// InMemoryStore is a trivial in-process Store useful for tests, examples and
// single-process prototypes. Data is copied on save and retrieval.
//
// Layout: namespace -> name -> raw bytes
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory note store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notes: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) a note. The input slice is copied.
func (s *InMemoryStore) Save(namespace, name string, data []byte) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[namespace]; !exists {
		s.notes[namespace] = make(map[string][]byte)
	}

	s.notes[namespace][name] = slices.Clone(data)

	return nil
}

// Get returns a copy of the note or ErrNotFound.
func (s *InMemoryStore) Get(namespace, name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.notes[namespace][name]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(data), nil
}

// List returns the sorted note names of the namespace.
func (s *InMemoryStore) List(namespace string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.notes[namespace]))
	for name := range s.notes[namespace] {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// Delete removes the note if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(namespace, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[namespace][name]; !ok {
		return ErrNotFound
	}

	delete(s.notes[namespace], name)

	return nil
}
