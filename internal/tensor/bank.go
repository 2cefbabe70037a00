package tensor

import "fmt"

// Bank holds a fixed number of equally shaped tensors over one contiguous
// backing array. Slot i occupies backing[i*rows*cols : (i+1)*rows*cols].
type Bank struct {
	rows    int
	cols    int
	backing []float64
	slots   []*Tensor
}

// NewBank allocates count zeroed tensors; name(i) tags slot i.
func NewBank(count, rows, cols int, name func(i int) string) (*Bank, error) {
	if count <= 0 {
		return nil, fmt.Errorf("bank: invalid slot count %d", count)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("bank: invalid shape %dx%d", rows, cols)
	}
	size := rows * cols
	b := &Bank{
		rows:    rows,
		cols:    cols,
		backing: make([]float64, count*size),
		slots:   make([]*Tensor, count),
	}
	for i := range b.slots {
		b.slots[i] = wrap(rows, cols, name(i), b.backing[i*size:(i+1)*size:(i+1)*size])
	}
	return b, nil
}

func (b *Bank) Len() int {
	return len(b.slots)
}

// At panics when i is outside [0, Len()).
func (b *Bank) At(i int) *Tensor {
	if i < 0 || i >= len(b.slots) {
		panic(fmt.Sprintf("bank: slot %d out of range [0,%d)", i, len(b.slots)))
	}
	return b.slots[i]
}
