package params

import (
	"context"
	"errors"
	"fmt"

	"spfnn/internal/model"
	"spfnn/internal/tensor"
)

var (
	ErrNoParameters  = errors.New("no parameters available")
	ErrMissingBlob   = errors.New("parameter blob missing")
	ErrShapeMismatch = errors.New("parameter shape mismatch")
)

// Source serves blobs by slot index.
type Source interface {
	Blob(ctx context.Context, index int) (model.Blob, bool, error)
}

// Sink receives blobs by slot index.
type Sink interface {
	PutBlob(ctx context.Context, index int, blob model.Blob) error
}

// Set is a complete runtime tensor set for one network.
type Set struct {
	Dims model.Dims

	Xmean, Xstd *tensor.Tensor
	Ymean, Ystd *tensor.Tensor

	W0, W1, W2 *tensor.Bank
	B0, B1, B2 *tensor.Bank

	// SW and SB are nil when Dims.SDim is zero.
	SW, SB *tensor.Bank
}

// NewSet allocates a zeroed set shaped for dims.
func NewSet(dims model.Dims) (*Set, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	s := &Set{Dims: dims}
	var err error
	if s.Xmean, err = tensor.New(dims.XDim, 1, "Xmean"); err != nil {
		return nil, err
	}
	if s.Xstd, err = tensor.New(dims.XDim, 1, "Xstd"); err != nil {
		return nil, err
	}
	if s.Ymean, err = tensor.New(dims.YDim, 1, "Ymean"); err != nil {
		return nil, err
	}
	if s.Ystd, err = tensor.New(dims.YDim, 1, "Ystd"); err != nil {
		return nil, err
	}

	banks := []struct {
		dst        **tensor.Bank
		prefix     string
		rows, cols int
	}{
		{&s.W0, "W0", dims.HDim, dims.XDim},
		{&s.W1, "W1", dims.HDim, dims.HDim},
		{&s.W2, "W2", dims.YDim, dims.HDim},
		{&s.B0, "b0", dims.HDim, 1},
		{&s.B1, "b1", dims.HDim, 1},
		{&s.B2, "b2", dims.YDim, 1},
	}
	for _, b := range banks {
		prefix := b.prefix
		bank, err := tensor.NewBank(model.PhaseBuckets, b.rows, b.cols, func(i int) string {
			return fmt.Sprintf("%s_%03d", prefix, i)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		*b.dst = bank
	}

	if dims.SDim > 0 {
		if s.SW, err = tensor.NewBank(dims.SDim, dims.YDim, dims.YDim, func(i int) string {
			return fmt.Sprintf("cp3_a%d", i)
		}); err != nil {
			return nil, err
		}
		if s.SB, err = tensor.NewBank(dims.SDim, dims.YDim, 1, func(i int) string {
			return fmt.Sprintf("cp3_b%d", i)
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Tensor returns the runtime tensor addressed by slot.
func (s *Set) Tensor(slot Slot) *tensor.Tensor {
	switch slot.Kind {
	case KindXmean:
		return s.Xmean
	case KindXstd:
		return s.Xstd
	case KindYmean:
		return s.Ymean
	case KindYstd:
		return s.Ystd
	case KindW0:
		return s.W0.At(slot.Group)
	case KindW1:
		return s.W1.At(slot.Group)
	case KindW2:
		return s.W2.At(slot.Group)
	case KindB0:
		return s.B0.At(slot.Group)
	case KindB1:
		return s.B1.At(slot.Group)
	case KindB2:
		return s.B2.At(slot.Group)
	case KindStyleW:
		return s.SW.At(slot.Group)
	case KindStyleB:
		return s.SB.At(slot.Group)
	default:
		panic(fmt.Sprintf("unknown slot kind %d", slot.Kind))
	}
}

// Load reads every slot of the layout for dims from src. It returns either a
// complete set or an error; a partially read set is never returned.
func Load(ctx context.Context, src Source, dims model.Dims) (*Set, error) {
	if src == nil {
		return nil, ErrNoParameters
	}
	set, err := NewSet(dims)
	if err != nil {
		return nil, err
	}
	for _, slot := range Layout(dims) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blob, ok, err := src.Blob(ctx, slot.Index)
		if err != nil {
			return nil, fmt.Errorf("load %s (slot %d): %w", slot.Name, slot.Index, err)
		}
		if !ok {
			if slot.Index == 0 {
				return nil, ErrNoParameters
			}
			return nil, fmt.Errorf("load %s (slot %d): %w", slot.Name, slot.Index, ErrMissingBlob)
		}
		if blob.Rows != slot.Rows || blob.Cols != slot.Cols || len(blob.Values) != slot.Rows*slot.Cols {
			return nil, fmt.Errorf("load %s (slot %d): got=%dx%d (%d values) want=%dx%d: %w",
				slot.Name, slot.Index, blob.Rows, blob.Cols, len(blob.Values), slot.Rows, slot.Cols, ErrShapeMismatch)
		}
		if err := set.Tensor(slot).Load(blob.Values); err != nil {
			return nil, fmt.Errorf("load %s (slot %d): %w", slot.Name, slot.Index, err)
		}
	}
	return set, nil
}

// Export writes every tensor of the set to dst in slot order.
func Export(ctx context.Context, dst Sink, set *Set) error {
	if dst == nil {
		return errors.New("export sink is required")
	}
	if set == nil {
		return ErrNoParameters
	}
	for _, slot := range Layout(set.Dims) {
		if err := ctx.Err(); err != nil {
			return err
		}
		blob := model.Blob{
			Name:   slot.Name,
			Rows:   slot.Rows,
			Cols:   slot.Cols,
			Values: set.Tensor(slot).Values(),
		}
		if err := dst.PutBlob(ctx, slot.Index, blob); err != nil {
			return fmt.Errorf("export %s (slot %d): %w", slot.Name, slot.Index, err)
		}
	}
	return nil
}
