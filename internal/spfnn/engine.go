package spfnn

import (
	"context"
	"errors"
	"fmt"
	"math"

	"spfnn/internal/model"
	"spfnn/internal/params"
	"spfnn/internal/tensor"
)

const twoPi = 2 * math.Pi

var (
	ErrNotLoaded       = errors.New("engine parameters not loaded")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Engine runs the phase-indexed, style-blended network one tick at a time.
// An Engine is not safe for concurrent use; independent engines share no state.
type Engine struct {
	cfg model.Config

	set *params.Set

	x  *tensor.Tensor
	xn *tensor.Tensor
	h0 *tensor.Tensor
	h1 *tensor.Tensor
	h2 *tensor.Tensor
	y  *tensor.Tensor
	ws *tensor.Tensor
	bs *tensor.Tensor

	style []float64

	phase   float64
	damping float64
}

// New validates cfg and returns an engine that still needs Load.
func New(cfg model.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	cfg.StyleNeurons = append([]int(nil), cfg.StyleNeurons...)
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() model.Config {
	cfg := e.cfg
	cfg.StyleNeurons = append([]int(nil), e.cfg.StyleNeurons...)
	return cfg
}

func (e *Engine) Loaded() bool {
	return e.set != nil
}

// Load reads the full parameter set from src and allocates scratch buffers.
// On failure the engine is left unloaded, whatever its prior state.
func (e *Engine) Load(ctx context.Context, src params.Source) error {
	e.unload()

	set, err := params.Load(ctx, src, e.cfg.Dims)
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	d := e.cfg.Dims
	scratch := []struct {
		dst        **tensor.Tensor
		rows, cols int
		name       string
	}{
		{&e.x, d.XDim, 1, "X"},
		{&e.xn, d.XDim, 1, "Xn"},
		{&e.h0, d.HDim, 1, "H0"},
		{&e.h1, d.HDim, 1, "H1"},
		{&e.h2, d.YDim, 1, "H2"},
		{&e.y, d.YDim, 1, "Y"},
		{&e.ws, d.YDim, d.YDim, "WS"},
		{&e.bs, d.YDim, 1, "bS"},
	}
	for _, s := range scratch {
		t, err := tensor.New(s.rows, s.cols, s.name)
		if err != nil {
			e.unload()
			return err
		}
		*s.dst = t
	}
	e.style = make([]float64, d.SDim)
	e.set = set
	e.phase = 0
	e.damping = 0
	return nil
}

func (e *Engine) unload() {
	e.set = nil
	e.x, e.xn, e.h0, e.h1, e.h2, e.y, e.ws, e.bs = nil, nil, nil, nil, nil, nil, nil, nil
	e.style = nil
	e.phase = 0
	e.damping = 0
}

func (e *Engine) SetInput(index int, value float64) error {
	if e.set == nil {
		return ErrNotLoaded
	}
	if index < 0 || index >= e.cfg.XDim {
		return fmt.Errorf("input %d not in [0,%d): %w", index, e.cfg.XDim, ErrIndexOutOfRange)
	}
	e.x.Set(index, 0, value)
	return nil
}

func (e *Engine) GetOutput(index int) (float64, error) {
	if e.set == nil {
		return 0, ErrNotLoaded
	}
	if index < 0 || index >= e.cfg.YDim {
		return 0, fmt.Errorf("output %d not in [0,%d): %w", index, e.cfg.YDim, ErrIndexOutOfRange)
	}
	return e.y.Get(index, 0), nil
}

// Inputs returns a copy of the current input vector.
func (e *Engine) Inputs() []float64 {
	if e.x == nil {
		return nil
	}
	return e.x.Values()
}

// Outputs returns a copy of the output vector of the last Predict.
func (e *Engine) Outputs() []float64 {
	if e.y == nil {
		return nil
	}
	return e.y.Values()
}

// Predict runs one tick and advances the phase.
func (e *Engine) Predict() error {
	if e.set == nil {
		return ErrNotLoaded
	}
	s := e.set

	for i, neuron := range e.cfg.StyleNeurons {
		e.style[i] = e.x.Get(neuron, 0)
	}

	tensor.Normalise(e.xn, e.x, s.Xmean, s.Xstd)

	bucket := e.PhaseBucket()
	tensor.Layer(e.h0, s.W0.At(bucket), e.xn, s.B0.At(bucket))
	tensor.ELU(e.h0)
	tensor.Layer(e.h1, s.W1.At(bucket), e.h0, s.B1.At(bucket))
	tensor.ELU(e.h1)
	tensor.Layer(e.h2, s.W2.At(bucket), e.h1, s.B2.At(bucket))
	tensor.ELU(e.h2)

	e.ws.Zero()
	e.bs.Zero()
	for i, weight := range e.style {
		tensor.Blend(e.ws, s.SW.At(i), weight)
		tensor.Blend(e.bs, s.SB.At(i), weight)
	}
	tensor.Layer(e.y, e.ws, e.h2, e.bs)

	tensor.Renormalise(e.y, e.y, s.Ymean, s.Ystd)

	advance := (1 - e.damping) * e.y.Get(e.cfg.PhaseIndex, 0) * twoPi
	if !math.IsNaN(advance) && !math.IsInf(advance, 0) {
		e.phase = wrapPhase(e.phase + advance)
	}
	return nil
}

// PhaseBucket is the weight set Predict would use for the current phase.
func (e *Engine) PhaseBucket() int {
	return phaseBucket(e.phase)
}

func (e *Engine) Phase() float64 {
	return e.phase
}

// SetPhase wraps value into [0, 2π).
func (e *Engine) SetPhase(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	e.phase = wrapPhase(value)
}

func (e *Engine) Damping() float64 {
	return e.damping
}

// SetDamping scales phase advance by (1 - value); 1 freezes the phase.
func (e *Engine) SetDamping(value float64) {
	e.damping = value
}

// Reset clears inputs, outputs, phase and damping while keeping parameters.
func (e *Engine) Reset() {
	e.phase = 0
	e.damping = 0
	if e.x != nil {
		e.x.Zero()
		e.y.Zero()
	}
}

// Export writes the loaded parameter set to dst in slot order.
func (e *Engine) Export(ctx context.Context, dst params.Sink) error {
	if e.set == nil {
		return ErrNotLoaded
	}
	return params.Export(ctx, dst, e.set)
}

func phaseBucket(phase float64) int {
	index := int(math.Floor(phase / twoPi * model.PhaseBuckets))
	if index < 0 {
		return 0
	}
	if index >= model.PhaseBuckets {
		return model.PhaseBuckets - 1
	}
	return index
}

func wrapPhase(value float64) float64 {
	wrapped := value - math.Floor(value/twoPi)*twoPi
	if wrapped < 0 || wrapped >= twoPi {
		return 0
	}
	return wrapped
}
