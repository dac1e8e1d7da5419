package sharedtext

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Manager hands out one SharedIndex per analyzer configuration, so every
// shard tokenized the same way lands in the same index.
type Manager struct {
	commitInterval time.Duration
	opts           []Option

	mutex   sync.RWMutex
	indexes map[uint64]*SharedIndex
}

func NewManager(commitInterval time.Duration, opts ...Option) *Manager {
	return &Manager{
		commitInterval: commitInterval,
		opts:           opts,
		indexes:        make(map[uint64]*SharedIndex),
	}
}

var defaultManager = sync.OnceValue(func() *Manager {
	return NewManager(DefaultCommitInterval)
})

// DefaultManager is the process-wide manager.
func DefaultManager() *Manager {
	return defaultManager()
}

// Key identifies the shared index of an analyzer configuration.
func Key(analyzerParams string) uint64 {
	return xxhash.Sum64String(analyzerParams)
}

// GetOrCreate returns the index of config's analyzer params, creating it
// with config on first use. Later calls with the same params get the
// existing index whatever the rest of their config.
func (m *Manager) GetOrCreate(config WriterConfig) (*SharedIndex, error) {
	key := Key(config.AnalyzerParams)

	m.mutex.RLock()
	index, exists := m.indexes[key]
	m.mutex.RUnlock()

	if exists {
		return index, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if index, exists := m.indexes[key]; exists {
		return index, nil
	}

	index, err := NewSharedIndex(config, m.commitInterval, m.opts...)
	if err != nil {
		return nil, err
	}
	m.indexes[key] = index

	index.logger.Info("created shared text index", "analyzer_hash", key)

	return index, nil
}

// TryRelease closes and forgets the index of analyzerParams when no shard
// is registered on it. It reports whether the index was released.
func (m *Manager) TryRelease(analyzerParams string) (bool, error) {
	key := Key(analyzerParams)

	m.mutex.Lock()
	index, exists := m.indexes[key]
	if !exists || index.ShardCount() > 0 {
		m.mutex.Unlock()
		return false, nil
	}
	delete(m.indexes, key)
	m.mutex.Unlock()

	index.logger.Info("released shared text index", "analyzer_hash", key)

	return true, index.Close()
}

func (m *Manager) IndexCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.indexes)
}
