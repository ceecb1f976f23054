package prediction

import (
	"context"
	"slices"
	"sync"

	"github.com/kilianp07/battery-health/core/factory"
)

// Store persists a single serialised model artifact.
type Store interface {
	// Load returns the artifact bytes or ErrArtifactNotFound.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Delete removes the artifact. Deleting a missing artifact is not an
	// error.
	Delete(ctx context.Context) error
}

// MemoryStore keeps the artifact in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	Saves int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrArtifactNotFound
	}
	return slices.Clone(m.data), nil
}

func (m *MemoryStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	m.data = slices.Clone(data)
	m.Saves++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

var storeRegistry = factory.NewRegistry[Store]()

func init() {
	_ = RegisterStore("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// RegisterStore adds an artifact store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the artifact store described by cfg.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	return storeRegistry.Create(cfg)
}
