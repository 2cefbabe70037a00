package params

import (
	"fmt"

	"spfnn/internal/model"
)

type Kind int

const (
	KindXmean Kind = iota
	KindXstd
	KindYmean
	KindYstd
	KindW0
	KindW1
	KindW2
	KindB0
	KindB1
	KindB2
	KindStyleW
	KindStyleB
)

const (
	normSlots     = 4
	perBucket     = 6
	perStyle      = 2
	styleBaseSlot = normSlots + model.PhaseBuckets*perBucket
)

// Slot is one addressed position in the parameter sequence.
type Slot struct {
	Index int
	Name  string
	Kind  Kind
	// Group is the phase bucket for W*/b* slots and the style set for SW/Sb slots.
	Group int
	Rows  int
	Cols  int
}

// Layout returns the parameter slots in blob index order.
func Layout(dims model.Dims) []Slot {
	slots := make([]Slot, 0, SlotCount(dims))
	slots = append(slots,
		Slot{Index: 0, Name: "Xmean", Kind: KindXmean, Rows: dims.XDim, Cols: 1},
		Slot{Index: 1, Name: "Xstd", Kind: KindXstd, Rows: dims.XDim, Cols: 1},
		Slot{Index: 2, Name: "Ymean", Kind: KindYmean, Rows: dims.YDim, Cols: 1},
		Slot{Index: 3, Name: "Ystd", Kind: KindYstd, Rows: dims.YDim, Cols: 1},
	)
	for i := 0; i < model.PhaseBuckets; i++ {
		base := normSlots + i*perBucket
		suffix := fmt.Sprintf("_%03d", i)
		slots = append(slots,
			Slot{Index: base + 0, Name: "W0" + suffix, Kind: KindW0, Group: i, Rows: dims.HDim, Cols: dims.XDim},
			Slot{Index: base + 1, Name: "W1" + suffix, Kind: KindW1, Group: i, Rows: dims.HDim, Cols: dims.HDim},
			Slot{Index: base + 2, Name: "W2" + suffix, Kind: KindW2, Group: i, Rows: dims.YDim, Cols: dims.HDim},
			Slot{Index: base + 3, Name: "b0" + suffix, Kind: KindB0, Group: i, Rows: dims.HDim, Cols: 1},
			Slot{Index: base + 4, Name: "b1" + suffix, Kind: KindB1, Group: i, Rows: dims.HDim, Cols: 1},
			Slot{Index: base + 5, Name: "b2" + suffix, Kind: KindB2, Group: i, Rows: dims.YDim, Cols: 1},
		)
	}
	for i := 0; i < dims.SDim; i++ {
		base := styleBaseSlot + i*perStyle
		slots = append(slots,
			Slot{Index: base, Name: fmt.Sprintf("cp3_a%d", i), Kind: KindStyleW, Group: i, Rows: dims.YDim, Cols: dims.YDim},
			Slot{Index: base + 1, Name: fmt.Sprintf("cp3_b%d", i), Kind: KindStyleB, Group: i, Rows: dims.YDim, Cols: 1},
		)
	}
	return slots
}

// SlotCount is the length of the parameter sequence for dims.
func SlotCount(dims model.Dims) int {
	return styleBaseSlot + dims.SDim*perStyle
}
