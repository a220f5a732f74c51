package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/wonny/holdings/pkg/config"
)

// Memory keeps blobs in process memory. Used by tests and by STORAGE_DRIVER=memory.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailSave, when set, is returned by every Save (for failure-path tests)
	FailSave error
}

// NewMemory creates an empty in-memory bridge
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(b), true, nil
}

func (m *Memory) Save(_ context.Context, key string, blob []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.blobs[key] = bytes.Clone(blob)
	return nil
}

func (m *Memory) Driver() string { return config.DriverMemory }
func (m *Memory) Close() error   { return nil }
