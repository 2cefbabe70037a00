package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spfnn/internal/model"
	"spfnn/internal/params"
)

const manifestFile = "manifest.json"

// BinFolder is one parameter set laid out as <slot name>.bin files of
// little-endian float32 values. Shapes come from the layout, not the files.
type BinFolder struct {
	dir   string
	slots []params.Slot
}

func NewBinFolder(dir string, dims model.Dims) *BinFolder {
	return &BinFolder{dir: dir, slots: params.Layout(dims)}
}

func (f *BinFolder) Dir() string {
	return f.dir
}

func (f *BinFolder) Blob(_ context.Context, index int) (model.Blob, bool, error) {
	if index < 0 || index >= len(f.slots) {
		return model.Blob{}, false, nil
	}
	slot := f.slots[index]
	data, err := os.ReadFile(f.path(slot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Blob{}, false, nil
		}
		return model.Blob{}, false, err
	}
	values, err := DecodeFloats(data)
	if err != nil {
		return model.Blob{}, false, fmt.Errorf("decode %s: %w", f.path(slot), err)
	}
	return model.Blob{Name: slot.Name, Rows: slot.Rows, Cols: slot.Cols, Values: values}, true, nil
}

func (f *BinFolder) PutBlob(_ context.Context, index int, blob model.Blob) error {
	if index < 0 || index >= len(f.slots) {
		return fmt.Errorf("slot %d out of range [0,%d)", index, len(f.slots))
	}
	slot := f.slots[index]
	if blob.Name != "" && blob.Name != slot.Name {
		return fmt.Errorf("slot %d is %s, got blob %s", index, slot.Name, blob.Name)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path(slot), EncodeFloats(blob.Values), 0o644)
}

func (f *BinFolder) path(slot params.Slot) string {
	return filepath.Join(f.dir, slot.Name+".bin")
}

// DirStore keeps each model in root/<model id>/ as a manifest plus a BinFolder.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Init(_ context.Context) error {
	if s.root == "" {
		return errors.New("dir store root is required")
	}
	return os.MkdirAll(s.root, 0o755)
}

func (s *DirStore) SaveManifest(_ context.Context, manifest model.Manifest) error {
	dir, err := s.modelDir(manifest.ModelID)
	if err != nil {
		return err
	}
	payload, err := EncodeManifest(manifest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), payload, 0o644)
}

func (s *DirStore) GetManifest(_ context.Context, modelID string) (model.Manifest, bool, error) {
	dir, err := s.modelDir(modelID)
	if err != nil {
		return model.Manifest{}, false, err
	}
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Manifest{}, false, nil
		}
		return model.Manifest{}, false, err
	}
	manifest, err := DecodeManifest(data)
	if err != nil {
		return model.Manifest{}, false, fmt.Errorf("decode manifest %s: %w", modelID, err)
	}
	return manifest, true, nil
}

func (s *DirStore) ListManifests(ctx context.Context) ([]model.Manifest, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []model.Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, ok, err := s.GetManifest(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, manifest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out, nil
}

func (s *DirStore) SaveBlob(ctx context.Context, modelID string, index int, blob model.Blob) error {
	folder, ok, err := s.folder(ctx, modelID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("model %s has no manifest; save it before blobs", modelID)
	}
	return folder.PutBlob(ctx, index, blob)
}

func (s *DirStore) GetBlob(ctx context.Context, modelID string, index int) (model.Blob, bool, error) {
	folder, ok, err := s.folder(ctx, modelID)
	if err != nil || !ok {
		return model.Blob{}, false, err
	}
	return folder.Blob(ctx, index)
}

func (s *DirStore) DeleteModel(_ context.Context, modelID string) error {
	dir, err := s.modelDir(modelID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (s *DirStore) folder(ctx context.Context, modelID string) (*BinFolder, bool, error) {
	manifest, ok, err := s.GetManifest(ctx, modelID)
	if err != nil || !ok {
		return nil, false, err
	}
	dir, err := s.modelDir(modelID)
	if err != nil {
		return nil, false, err
	}
	return NewBinFolder(dir, manifest.Config.Dims), true, nil
}

func (s *DirStore) modelDir(modelID string) (string, error) {
	if modelID == "" || modelID == "." || modelID == ".." || strings.ContainsAny(modelID, `/\`) {
		return "", fmt.Errorf("invalid model id %q", modelID)
	}
	return filepath.Join(s.root, modelID), nil
}
