// Package build is a minimal model of a build host: a named asset set,
// bundles listing their output files and two lifecycle stages plugins can
// hook into.
package build

import (
	"sort"
	"sync"

	"github.com/maruel/natural"
)

// Asset is a single build output.
type Asset struct {
	Content []byte
	Map     []byte // source map JSON, nil when there is none
}

// AssetStore is a mutable named asset collection.
type AssetStore interface {
	Get(name string) (*Asset, bool)
	Set(name string, a *Asset)
	Delete(name string)
	// Names returns all asset names in natural order.
	Names() []string
}

// MemoryAssets is AssetStore kept in memory. It remembers names which were
// deleted so the host could remove them from its output as well. Safe for
// concurrent use.
type MemoryAssets struct {
	mu      sync.RWMutex
	assets  map[string]*Asset
	deleted map[string]struct{}
}

// NewMemoryAssets returns empty store.
func NewMemoryAssets() *MemoryAssets {
	return &MemoryAssets{
		assets:  make(map[string]*Asset),
		deleted: make(map[string]struct{}),
	}
}

func (m *MemoryAssets) Get(name string) (*Asset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assets[name]
	return a, ok
}

func (m *MemoryAssets) Set(name string, a *Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assets[name] = a
	delete(m.deleted, name)
}

func (m *MemoryAssets) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[name]; !ok {
		return
	}
	delete(m.assets, name)
	m.deleted[name] = struct{}{}
}

func (m *MemoryAssets) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.assets)
}

// Deleted returns names of assets removed since the store was created and
// not set again afterwards.
func (m *MemoryAssets) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.deleted)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}
