package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"spfnn/internal/model"
)

func TestDecodeManifestFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("minimal_manifest_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	manifest, err := DecodeManifest(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if manifest.ModelID != "biped-minimal-1" {
		t.Fatalf("unexpected model id: %s", manifest.ModelID)
	}
	cfg := manifest.Config
	if cfg.XDim != 4 || cfg.HDim != 8 || cfg.YDim != 3 || cfg.SDim != 2 || cfg.PhaseIndex != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.StyleNeurons) != 2 || cfg.StyleNeurons[1] != 3 {
		t.Fatalf("unexpected style neurons: %+v", cfg.StyleNeurons)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}
}

func TestDecodeManifestVersionMismatch(t *testing.T) {
	manifest := NewManifest("m1", model.Config{Dims: model.Dims{XDim: 1, HDim: 1, YDim: 1}})
	manifest.CodecVersion = CurrentCodecVersion + 1
	data, err := EncodeManifest(manifest)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeManifest(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got=%v", err)
	}
}

func TestFloatCodecLittleEndianFloat32(t *testing.T) {
	data := EncodeFloats([]float64{1, -2.5})
	want := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x20, 0xc0}
	if len(data) != len(want) {
		t.Fatalf("unexpected payload length: %d", len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("unexpected byte %d: got=%#x want=%#x", i, data[i], want[i])
		}
	}

	values, err := DecodeFloats(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if values[0] != 1 || values[1] != -2.5 {
		t.Fatalf("unexpected decoded values: %v", values)
	}

	rounded, _ := DecodeFloats(EncodeFloats([]float64{0.1}))
	if rounded[0] != float64(float32(0.1)) || math.Abs(rounded[0]-0.1) > 1e-7 {
		t.Fatalf("unexpected float32 rounding: %v", rounded[0])
	}

	if _, err := DecodeFloats([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
