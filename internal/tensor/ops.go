package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Blend accumulates dst += weight*src.
func Blend(dst, src *Tensor, weight float64) {
	mustSameShape("blend", dst, src)
	floats.AddScaled(dst.data(), weight, src.data())
}

// Layer computes dst = w·x + b. dst must not alias x.
func Layer(dst, w, x, b *Tensor) {
	if w.Cols() != x.Rows() || dst.Rows() != w.Rows() || dst.Cols() != x.Cols() {
		panic(fmt.Sprintf("layer: %v·%v -> %v: %v", w, x, dst, ErrShape))
	}
	mustSameShape("layer bias", dst, b)
	dst.m.Mul(w.m, x.m)
	dst.m.Add(dst.m, b.m)
}

// ELU applies x if x > 0 else e^x - 1, in place.
func ELU(t *Tensor) {
	data := t.data()
	for i, v := range data {
		if v <= 0 {
			data[i] = math.Exp(v) - 1
		}
	}
}

// Normalise writes (x - mean) / std into dst. x is left untouched unless it is dst.
func Normalise(dst, x, mean, std *Tensor) {
	mustSameShape("normalise", dst, x)
	mustSameShape("normalise mean", x, mean)
	mustSameShape("normalise std", x, std)
	dst.m.Sub(x.m, mean.m)
	dst.m.DivElem(dst.m, std.m)
}

// Renormalise writes x*std + mean into dst.
func Renormalise(dst, x, mean, std *Tensor) {
	mustSameShape("renormalise", dst, x)
	mustSameShape("renormalise mean", x, mean)
	mustSameShape("renormalise std", x, std)
	dst.m.MulElem(x.m, std.m)
	dst.m.Add(dst.m, mean.m)
}

func mustSameShape(op string, a, b *Tensor) {
	if !a.SameShape(b) {
		panic(fmt.Sprintf("%s: %v vs %v: %v", op, a, b, ErrShape))
	}
}
