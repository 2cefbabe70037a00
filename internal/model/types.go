package model

import "fmt"

// PhaseBuckets is the number of phase-indexed weight sets around one cycle.
const PhaseBuckets = 50

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Dims fixes the network topology.
type Dims struct {
	XDim int `json:"xdim"`
	HDim int `json:"hdim"`
	YDim int `json:"ydim"`
	SDim int `json:"sdim"`
}

func (d Dims) Validate() error {
	if d.XDim <= 0 || d.HDim <= 0 || d.YDim <= 0 {
		return fmt.Errorf("invalid dims: xdim=%d hdim=%d ydim=%d must be > 0", d.XDim, d.HDim, d.YDim)
	}
	if d.SDim < 0 {
		return fmt.Errorf("invalid dims: sdim=%d must be >= 0", d.SDim)
	}
	return nil
}

// Config is everything the engine needs besides the weights.
type Config struct {
	Dims
	// StyleNeurons[i] is the input index read as the blend weight of style set i.
	StyleNeurons []int `json:"style_neurons"`
	// PhaseIndex is the output index that drives phase advance.
	PhaseIndex int `json:"phase_index"`
}

func (c Config) Validate() error {
	if err := c.Dims.Validate(); err != nil {
		return err
	}
	if len(c.StyleNeurons) != c.SDim {
		return fmt.Errorf("style neuron count mismatch: got=%d want=%d", len(c.StyleNeurons), c.SDim)
	}
	for i, idx := range c.StyleNeurons {
		if idx < 0 || idx >= c.XDim {
			return fmt.Errorf("style neuron %d: input index %d out of range [0,%d)", i, idx, c.XDim)
		}
	}
	if c.PhaseIndex < 0 || c.PhaseIndex >= c.YDim {
		return fmt.Errorf("phase index %d out of range [0,%d)", c.PhaseIndex, c.YDim)
	}
	return nil
}

// Manifest describes one stored parameter set.
type Manifest struct {
	VersionedRecord
	ModelID string `json:"model_id"`
	Config  Config `json:"config"`
}

// Blob is one shape-tagged tensor payload as exchanged with a parameter store.
type Blob struct {
	Name   string    `json:"name"`
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Values []float64 `json:"values"`
}
