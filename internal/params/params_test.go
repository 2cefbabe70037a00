package params

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"spfnn/internal/model"
)

type mapStore struct {
	blobs map[int]model.Blob
}

func newMapStore() *mapStore {
	return &mapStore{blobs: make(map[int]model.Blob)}
}

func (s *mapStore) Blob(_ context.Context, index int) (model.Blob, bool, error) {
	b, ok := s.blobs[index]
	return b, ok, nil
}

func (s *mapStore) PutBlob(_ context.Context, index int, blob model.Blob) error {
	s.blobs[index] = blob
	return nil
}

func TestLayoutAddressing(t *testing.T) {
	dims := model.Dims{XDim: 5, HDim: 7, YDim: 3, SDim: 2}
	slots := Layout(dims)
	if len(slots) != 4+300+4 || SlotCount(dims) != len(slots) {
		t.Fatalf("unexpected slot count: got=%d", len(slots))
	}
	for i, slot := range slots {
		if slot.Index != i {
			t.Fatalf("slot %d has index %d", i, slot.Index)
		}
	}

	checks := []struct {
		index      int
		name       string
		rows, cols int
	}{
		{0, "Xmean", 5, 1},
		{1, "Xstd", 5, 1},
		{2, "Ymean", 3, 1},
		{3, "Ystd", 3, 1},
		{4, "W0_000", 7, 5},
		{5, "W1_000", 7, 7},
		{6, "W2_000", 3, 7},
		{7, "b0_000", 7, 1},
		{8, "b1_000", 7, 1},
		{9, "b2_000", 3, 1},
		{4 + 49*6 + 2, "W2_049", 3, 7},
		{4 + 13*6 + 4, "b1_013", 7, 1},
		{304, "cp3_a0", 3, 3},
		{305, "cp3_b0", 3, 1},
		{306, "cp3_a1", 3, 3},
		{307, "cp3_b1", 3, 1},
	}
	for _, c := range checks {
		slot := slots[c.index]
		if slot.Name != c.name || slot.Rows != c.rows || slot.Cols != c.cols {
			t.Fatalf("slot %d: got=%s %dx%d want=%s %dx%d", c.index, slot.Name, slot.Rows, slot.Cols, c.name, c.rows, c.cols)
		}
	}
}

func TestLoadExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dims := model.Dims{XDim: 3, HDim: 4, YDim: 2, SDim: 1}
	set, err := Random(dims, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("random: %v", err)
	}

	store := newMapStore()
	if err := Export(ctx, store, set); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(store.blobs) != SlotCount(dims) {
		t.Fatalf("unexpected exported blob count: %d", len(store.blobs))
	}
	if store.blobs[4+6*10].Name != "W0_010" {
		t.Fatalf("unexpected export name: %s", store.blobs[64].Name)
	}

	loaded, err := Load(ctx, store, dims)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, slot := range Layout(dims) {
		want := set.Tensor(slot).Values()
		got := loaded.Tensor(slot).Values()
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("slot %s differs at %d: got=%f want=%f", slot.Name, i, got[i], want[i])
			}
		}
	}
}

func TestLoadFailsSafely(t *testing.T) {
	ctx := context.Background()
	dims := model.Dims{XDim: 2, HDim: 2, YDim: 1}

	if set, err := Load(ctx, nil, dims); !errors.Is(err, ErrNoParameters) || set != nil {
		t.Fatalf("expected no parameters error for nil source, got=%v", err)
	}
	if _, err := Load(ctx, newMapStore(), dims); !errors.Is(err, ErrNoParameters) {
		t.Fatalf("expected no parameters error for empty source, got=%v", err)
	}

	set, err := NewSet(dims)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	store := newMapStore()
	if err := Export(ctx, store, set); err != nil {
		t.Fatalf("export: %v", err)
	}

	delete(store.blobs, 100)
	if _, err := Load(ctx, store, dims); !errors.Is(err, ErrMissingBlob) {
		t.Fatalf("expected missing blob error, got=%v", err)
	}

	if _, err := Load(ctx, store, model.Dims{XDim: 3, HDim: 2, YDim: 1}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch error, got=%v", err)
	}
}

func TestRandomStdsPositive(t *testing.T) {
	dims := model.Dims{XDim: 4, HDim: 3, YDim: 2}
	set, err := Random(dims, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	for _, v := range append(set.Xstd.Values(), set.Ystd.Values()...) {
		if v <= 0 {
			t.Fatalf("expected strictly positive std, got=%f", v)
		}
	}
	if set.SW != nil || set.SB != nil {
		t.Fatal("expected no style banks for sdim=0")
	}
}
