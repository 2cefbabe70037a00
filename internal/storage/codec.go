package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"spfnn/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// NewManifest stamps cfg with the current schema and codec versions.
func NewManifest(modelID string, cfg model.Config) model.Manifest {
	return model.Manifest{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ModelID:         modelID,
		Config:          cfg,
	}
}

func EncodeManifest(m model.Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func DecodeManifest(data []byte) (model.Manifest, error) {
	var manifest model.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return model.Manifest{}, err
	}
	if err := checkVersion(manifest.VersionedRecord); err != nil {
		return model.Manifest{}, err
	}
	return manifest, nil
}

// EncodeFloats writes values as little-endian float32, the layout of exported
// .bin parameter assets.
func EncodeFloats(values []float64) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}
	return out
}

func DecodeFloats(data []byte) ([]float64, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("float32 payload length %d is not a multiple of 4", len(data))
	}
	out := make([]float64, len(data)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return out, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
