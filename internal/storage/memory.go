package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"spfnn/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	manifests   map[string]model.Manifest
	blobs       map[string]map[int]model.Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.manifests = make(map[string]model.Manifest)
	s.blobs = make(map[string]map[int]model.Blob)
	return nil
}

func (s *MemoryStore) SaveManifest(_ context.Context, manifest model.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	manifest.Config.StyleNeurons = append([]int(nil), manifest.Config.StyleNeurons...)
	s.manifests[manifest.ModelID] = manifest
	return nil
}

func (s *MemoryStore) GetManifest(_ context.Context, modelID string) (model.Manifest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifest, ok := s.manifests[modelID]
	if !ok {
		return model.Manifest{}, false, nil
	}
	manifest.Config.StyleNeurons = append([]int(nil), manifest.Config.StyleNeurons...)
	return manifest, true, nil
}

func (s *MemoryStore) ListManifests(_ context.Context) ([]model.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Manifest, 0, len(s.manifests))
	for _, manifest := range s.manifests {
		out = append(out, manifest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out, nil
}

func (s *MemoryStore) SaveBlob(_ context.Context, modelID string, index int, blob model.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	byIndex, ok := s.blobs[modelID]
	if !ok {
		byIndex = make(map[int]model.Blob)
		s.blobs[modelID] = byIndex
	}
	blob.Values = append([]float64(nil), blob.Values...)
	byIndex[index] = blob
	return nil
}

func (s *MemoryStore) GetBlob(_ context.Context, modelID string, index int) (model.Blob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[modelID][index]
	if !ok {
		return model.Blob{}, false, nil
	}
	blob.Values = append([]float64(nil), blob.Values...)
	return blob, true, nil
}

func (s *MemoryStore) DeleteModel(_ context.Context, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.manifests, modelID)
	delete(s.blobs, modelID)
	return nil
}
