package storage

import (
	"context"

	"spfnn/internal/model"
)

// Store persists parameter sets: one manifest per model plus its blobs keyed by slot index.
type Store interface {
	Init(ctx context.Context) error
	SaveManifest(ctx context.Context, manifest model.Manifest) error
	GetManifest(ctx context.Context, modelID string) (model.Manifest, bool, error)
	ListManifests(ctx context.Context) ([]model.Manifest, error)
	SaveBlob(ctx context.Context, modelID string, index int, blob model.Blob) error
	GetBlob(ctx context.Context, modelID string, index int) (model.Blob, bool, error)
	DeleteModel(ctx context.Context, modelID string) error
}
