package spfnn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"spfnn/internal/agent"
	"spfnn/internal/model"
	"spfnn/internal/params"
	core "spfnn/internal/spfnn"
	"spfnn/internal/storage"
)

const (
	defaultDBPath   = "spfnn.db"
	defaultStoreDir = "models"
)

type Options struct {
	StoreKind string
	// Path is the sqlite database file or the dir-store root.
	Path string
}

type Client struct {
	store storage.Store

	initOnce sync.Once
	initErr  error
}

type GenerateRequest struct {
	ModelID string
	Config  model.Config
	Seed    int64
}

type ImportRequest struct {
	ModelID string
	Dir     string
	Config  model.Config
}

type ModelSummary struct {
	ModelID string
	Slots   int
}

type ExportRequest struct {
	ModelID string
	OutDir  string
}

type ExportSummary struct {
	ModelID   string
	Directory string
	Files     int
}

type SlotInfo struct {
	Index int
	Name  string
	Rows  int
	Cols  int
	Bytes uint64
}

type InspectSummary struct {
	Manifest   model.Manifest
	Slots      []SlotInfo
	TotalBytes uint64
}

type ReplayRequest struct {
	ModelID      string
	Inputs       [][]float64
	Damping      float64
	InitialPhase float64
}

type ReplayStep struct {
	Tick    int
	Outputs []float64
	Phase   float64
	Bucket  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	path := opts.Path
	if path == "" {
		switch storeKind {
		case "sqlite":
			path = defaultDBPath
		case "dir":
			path = defaultStoreDir
		}
	}

	store, err := storage.NewStore(storeKind, path)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

func (c *Client) Models(ctx context.Context) ([]model.Manifest, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListManifests(ctx)
}

// Generate stores a random, well-formed parameter set for smoke testing hosts.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (ModelSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ModelSummary{}, err
	}
	if err := req.Config.Validate(); err != nil {
		return ModelSummary{}, err
	}
	set, err := params.Random(req.Config.Dims, rand.New(rand.NewSource(req.Seed)))
	if err != nil {
		return ModelSummary{}, err
	}
	id, err := storage.SaveModel(ctx, c.store, req.ModelID, req.Config, set)
	if err != nil {
		return ModelSummary{}, err
	}
	return ModelSummary{ModelID: id, Slots: params.SlotCount(req.Config.Dims)}, nil
}

// Import reads a folder of .bin parameter files laid out for req.Config.
func (c *Client) Import(ctx context.Context, req ImportRequest) (ModelSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ModelSummary{}, err
	}
	if req.Dir == "" {
		return ModelSummary{}, errors.New("import directory is required")
	}
	if err := req.Config.Validate(); err != nil {
		return ModelSummary{}, err
	}
	set, err := params.Load(ctx, storage.NewBinFolder(req.Dir, req.Config.Dims), req.Config.Dims)
	if err != nil {
		return ModelSummary{}, fmt.Errorf("import %s: %w", req.Dir, err)
	}
	id, err := storage.SaveModel(ctx, c.store, req.ModelID, req.Config, set)
	if err != nil {
		return ModelSummary{}, err
	}
	return ModelSummary{ModelID: id, Slots: params.SlotCount(req.Config.Dims)}, nil
}

// Export writes a stored model as .bin files plus manifest.json.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}
	if req.ModelID == "" {
		return ExportSummary{}, errors.New("model id is required")
	}
	manifest, set, err := storage.LoadModel(ctx, c.store, req.ModelID)
	if err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join("exports", req.ModelID)
	}
	if err := params.Export(ctx, storage.NewBinFolder(outDir, manifest.Config.Dims), set); err != nil {
		return ExportSummary{}, err
	}
	payload, err := storage.EncodeManifest(manifest)
	if err != nil {
		return ExportSummary{}, err
	}
	if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), payload, 0o644); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{
		ModelID:   req.ModelID,
		Directory: outDir,
		Files:     params.SlotCount(manifest.Config.Dims) + 1,
	}, nil
}

func (c *Client) Inspect(ctx context.Context, modelID string) (InspectSummary, error) {
	if err := c.Init(ctx); err != nil {
		return InspectSummary{}, err
	}
	manifest, ok, err := c.store.GetManifest(ctx, modelID)
	if err != nil {
		return InspectSummary{}, err
	}
	if !ok {
		return InspectSummary{}, fmt.Errorf("model %s: %w", modelID, params.ErrNoParameters)
	}

	summary := InspectSummary{Manifest: manifest}
	for _, slot := range params.Layout(manifest.Config.Dims) {
		blob, ok, err := c.store.GetBlob(ctx, modelID, slot.Index)
		if err != nil {
			return InspectSummary{}, err
		}
		info := SlotInfo{Index: slot.Index, Name: slot.Name, Rows: slot.Rows, Cols: slot.Cols}
		if ok {
			info.Bytes = uint64(4 * len(blob.Values))
		}
		summary.TotalBytes += info.Bytes
		summary.Slots = append(summary.Slots, info)
	}
	return summary, nil
}

// OpenEngine returns a loaded engine for modelID. Each call returns an
// independent engine.
func (c *Client) OpenEngine(ctx context.Context, modelID string) (*core.Engine, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	manifest, ok, err := c.store.GetManifest(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("model %s: %w", modelID, params.ErrNoParameters)
	}
	engine, err := core.New(manifest.Config)
	if err != nil {
		return nil, err
	}
	if err := engine.Load(ctx, storage.Params(c.store, modelID)); err != nil {
		return nil, err
	}
	return engine, nil
}

// Replay feeds each input row through a fresh engine, one tick per row.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) ([]ReplayStep, error) {
	engine, err := c.OpenEngine(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}
	engine.SetDamping(req.Damping)
	engine.SetPhase(req.InitialPhase)

	controller, err := agent.NewController(req.ModelID, engine, nil, nil)
	if err != nil {
		return nil, err
	}
	steps := make([]ReplayStep, 0, len(req.Inputs))
	for i, row := range req.Inputs {
		bucket := engine.PhaseBucket()
		outputs, err := controller.RunStep(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
		steps = append(steps, ReplayStep{
			Tick:    i,
			Outputs: outputs,
			Phase:   engine.Phase(),
			Bucket:  bucket,
		})
	}
	return steps, nil
}
