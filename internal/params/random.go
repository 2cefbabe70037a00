package params

import (
	"math"
	"math/rand"

	"spfnn/internal/model"
)

// Random fills a set with small uniform weights scaled by fan-in, zero means
// and strictly positive stds. Values are rounded to float32 so they survive
// the .bin codec unchanged.
func Random(dims model.Dims, rng *rand.Rand) (*Set, error) {
	set, err := NewSet(dims)
	if err != nil {
		return nil, err
	}
	for _, slot := range Layout(dims) {
		values := make([]float64, slot.Rows*slot.Cols)
		switch slot.Kind {
		case KindXmean, KindYmean:
		case KindXstd, KindYstd:
			for i := range values {
				values[i] = f32(0.5 + rng.Float64())
			}
		case KindB0, KindB1, KindB2, KindStyleB:
			for i := range values {
				values[i] = f32(0.1 * (2*rng.Float64() - 1))
			}
		default:
			limit := math.Sqrt(6 / float64(slot.Rows+slot.Cols))
			for i := range values {
				values[i] = f32(limit * (2*rng.Float64() - 1))
			}
		}
		if err := set.Tensor(slot).Load(values); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func f32(v float64) float64 {
	return float64(float32(v))
}
