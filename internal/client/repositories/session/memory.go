package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
)

// MemoryStorage keeps the encoded session blob in memory. It is used by
// tests and when no database path is configured.
type MemoryStorage struct {
	mu   sync.Mutex
	blob []byte
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(_ context.Context) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, _, err := decode(m.blob)
	return s, err
}

func (m *MemoryStorage) Save(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, version, _ := decode(m.blob)
	b, err := encode(s, version)
	if err != nil {
		return err
	}
	m.blob = b
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = nil
	return nil
}

func (m *MemoryStorage) Token(ctx context.Context) string {
	s, err := m.Load(ctx)
	if err != nil {
		return ""
	}
	return s.Token
}

// Raw returns a copy of the stored blob.
func (m *MemoryStorage) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.blob...)
}
