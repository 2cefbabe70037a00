package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"spfnn/internal/model"
	"spfnn/internal/params"
)

// ModelParams adapts one stored model to the params Source and Sink.
type ModelParams struct {
	store   Store
	modelID string
}

var (
	_ params.Source = (*ModelParams)(nil)
	_ params.Sink   = (*ModelParams)(nil)
)

func Params(store Store, modelID string) *ModelParams {
	return &ModelParams{store: store, modelID: modelID}
}

func (p *ModelParams) Blob(ctx context.Context, index int) (model.Blob, bool, error) {
	return p.store.GetBlob(ctx, p.modelID, index)
}

func (p *ModelParams) PutBlob(ctx context.Context, index int, blob model.Blob) error {
	return p.store.SaveBlob(ctx, p.modelID, index, blob)
}

// NewModelID returns a fresh random model id.
func NewModelID() string {
	return uuid.NewString()
}

// SaveModel writes the manifest and every tensor of set under modelID,
// generating an id when modelID is empty. It returns the id used.
func SaveModel(ctx context.Context, store Store, modelID string, cfg model.Config, set *params.Set) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if set == nil {
		return "", params.ErrNoParameters
	}
	if set.Dims != cfg.Dims {
		return "", fmt.Errorf("set dims %+v do not match config dims %+v: %w", set.Dims, cfg.Dims, params.ErrShapeMismatch)
	}
	if modelID == "" {
		modelID = NewModelID()
	}
	if err := store.SaveManifest(ctx, NewManifest(modelID, cfg)); err != nil {
		return "", fmt.Errorf("save manifest %s: %w", modelID, err)
	}
	if err := params.Export(ctx, Params(store, modelID), set); err != nil {
		return "", err
	}
	return modelID, nil
}

// LoadModel reads the manifest and full parameter set of modelID.
func LoadModel(ctx context.Context, store Store, modelID string) (model.Manifest, *params.Set, error) {
	manifest, ok, err := store.GetManifest(ctx, modelID)
	if err != nil {
		return model.Manifest{}, nil, err
	}
	if !ok {
		return model.Manifest{}, nil, fmt.Errorf("model %s: %w", modelID, params.ErrNoParameters)
	}
	set, err := params.Load(ctx, Params(store, modelID), manifest.Config.Dims)
	if err != nil {
		return model.Manifest{}, nil, fmt.Errorf("model %s: %w", modelID, err)
	}
	return manifest, set, nil
}
