package tensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("tensor shape mismatch")

// Tensor is a fixed-shape rows×cols float buffer tagged with a diagnostic name.
// Storage is always contiguous (stride == cols).
type Tensor struct {
	name string
	m    *mat.Dense
}

// New returns a zero-initialised tensor.
func New(rows, cols int, name string) (*Tensor, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("tensor %s: invalid shape %dx%d", name, rows, cols)
	}
	return &Tensor{name: name, m: mat.NewDense(rows, cols, nil)}, nil
}

// FromSlice builds a tensor and loads values in row-major order.
func FromSlice(rows, cols int, name string, values []float64) (*Tensor, error) {
	t, err := New(rows, cols, name)
	if err != nil {
		return nil, err
	}
	if err := t.Load(values); err != nil {
		return nil, err
	}
	return t, nil
}

func wrap(rows, cols int, name string, backing []float64) *Tensor {
	return &Tensor{name: name, m: mat.NewDense(rows, cols, backing)}
}

func (t *Tensor) Name() string {
	return t.name
}

func (t *Tensor) Rows() int {
	r, _ := t.m.Dims()
	return r
}

func (t *Tensor) Cols() int {
	_, c := t.m.Dims()
	return c
}

// Len is rows*cols.
func (t *Tensor) Len() int {
	r, c := t.m.Dims()
	return r * c
}

func (t *Tensor) SameShape(other *Tensor) bool {
	r0, c0 := t.m.Dims()
	r1, c1 := other.m.Dims()
	return r0 == r1 && c0 == c1
}

// Get panics when row or col fall outside the declared shape.
func (t *Tensor) Get(row, col int) float64 {
	t.checkIndex(row, col)
	return t.m.At(row, col)
}

// Set panics when row or col fall outside the declared shape.
func (t *Tensor) Set(row, col int, value float64) {
	t.checkIndex(row, col)
	t.m.Set(row, col, value)
}

func (t *Tensor) Zero() {
	t.m.Zero()
}

// Load copies values into the tensor. The n-th value lands on (n/cols, n%cols).
func (t *Tensor) Load(values []float64) error {
	if len(values) != t.Len() {
		return fmt.Errorf("tensor %s: load %d values into %dx%d: %w", t.name, len(values), t.Rows(), t.Cols(), ErrShape)
	}
	copy(t.data(), values)
	return nil
}

// Values returns a row-major copy of the tensor contents.
func (t *Tensor) Values() []float64 {
	return append([]float64(nil), t.data()...)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("%s(%dx%d)", t.name, t.Rows(), t.Cols())
}

func (t *Tensor) data() []float64 {
	return t.m.RawMatrix().Data
}

func (t *Tensor) checkIndex(row, col int) {
	r, c := t.m.Dims()
	if row < 0 || row >= r || col < 0 || col >= c {
		panic(fmt.Sprintf("tensor %s: index (%d,%d) out of range %dx%d", t.name, row, col, r, c))
	}
}
