package testutil

import (
	"sync"

	"tmx-go/internal/tmx"
)

// MockDocumentStore keeps metadata records in memory, keyed by artifact
// path. Loads return copies, so callers mutating a loaded record do not
// change the store until Save.
type MockDocumentStore struct {
	mu    sync.Mutex
	metas map[string]tmx.DocumentMeta

	FailSave error
	FailSync error

	SaveCalls int
	SyncCalls int
}

// NewMockDocumentStore creates an empty MockDocumentStore.
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{metas: make(map[string]tmx.DocumentMeta)}
}

// SetMeta seeds the record for path.
func (s *MockDocumentStore) SetMeta(path string, meta *tmx.DocumentMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas[path] = *meta
}

// Meta returns the stored record for path, or the defaults when none was
// ever saved.
func (s *MockDocumentStore) Meta(path string) *tmx.DocumentMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.metas[path]; ok {
		m := m
		return &m
	}
	return tmx.NewDocumentMeta()
}

func (s *MockDocumentStore) Load(path string) (*tmx.DocumentMeta, error) {
	return s.Meta(path), nil
}

func (s *MockDocumentStore) Save(path string, meta *tmx.DocumentMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	if s.FailSave != nil {
		return s.FailSave
	}
	s.metas[path] = *meta
	return nil
}

func (s *MockDocumentStore) Sync(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SyncCalls++
	return s.FailSync
}
