package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process, path-addressed Layer used by tests (spec.md
// §4.D: "an in-process map from computed path to bytes; used for tests").
type Memory struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	pointers map[string][]byte
}

// NewMemory returns an empty in-process Layer.
func NewMemory() *Memory {
	return &Memory{
		blobs:    make(map[string][]byte),
		pointers: make(map[string][]byte),
	}
}

func (m *Memory) PutBlob(ctx context.Context, artifact Artifact, data []byte) ([]ObjectKey, error) {
	path := artifact.DeterministicPath("archive")

	m.mu.Lock()
	defer m.mu.Unlock()
	// Idempotent: a repeat put of identical bytes under the same key is a
	// no-op, matching spec.md §8's "Insert is idempotent at the blob
	// layer" property.
	m.blobs[path] = append([]byte(nil), data...)
	return []ObjectKey{NamedKey(path)}, nil
}

func (m *Memory) GetBlob(ctx context.Context, key ObjectKey) ([]byte, error) {
	if key.Kind != KindNamed {
		return nil, ErrBadKeyKind
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key.Path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) PutPointer(ctx context.Context, p Pointer) (ObjectKey, error) {
	path := p.Artifact.DeterministicPath("meta.json")
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ObjectKey{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointers[path] = data
	return NamedKey(path), nil
}

func (m *Memory) GetPointer(ctx context.Context, artifact Artifact) (*Pointer, error) {
	path := artifact.DeterministicPath("meta.json")

	m.mu.RLock()
	data, ok := m.pointers[path]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Memory) SupportsContentID() bool { return false }
