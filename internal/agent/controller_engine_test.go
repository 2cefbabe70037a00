package agent

import (
	"context"
	"math/rand"
	"testing"

	spfio "spfnn/internal/io"
	"spfnn/internal/model"
	"spfnn/internal/params"
	"spfnn/internal/spfnn"
)

type blobMap map[int]model.Blob

func (m blobMap) Blob(_ context.Context, index int) (model.Blob, bool, error) {
	b, ok := m[index]
	return b, ok, nil
}

func (m blobMap) PutBlob(_ context.Context, index int, blob model.Blob) error {
	m[index] = blob
	return nil
}

func TestControllerDrivesLoadedEngine(t *testing.T) {
	ctx := context.Background()
	cfg := model.Config{
		Dims:         model.Dims{XDim: 4, HDim: 6, YDim: 4, SDim: 2},
		StyleNeurons: []int{2, 3},
		PhaseIndex:   3,
	}
	set, err := params.Random(cfg.Dims, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	blobs := blobMap{}
	if err := params.Export(ctx, blobs, set); err != nil {
		t.Fatalf("export: %v", err)
	}

	engine, err := spfnn.New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Load(ctx, blobs); err != nil {
		t.Fatalf("load: %v", err)
	}
	reference, _ := spfnn.New(cfg)
	if err := reference.Load(ctx, blobs); err != nil {
		t.Fatalf("load reference: %v", err)
	}

	trajectory := spfio.NewVectorSensor("trajectory", 2)
	style := spfio.NewVectorSensor("style", 2)
	joints := spfio.NewRecordingActuator("joints")
	contacts := spfio.NewRecordingActuator("contacts")
	controller, err := NewController("biped", engine,
		[]spfio.Sensor{trajectory, style},
		[]spfio.Actuator{joints, contacts},
	)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := style.Set([]float64{0.75, 0.25}); err != nil {
		t.Fatalf("set style: %v", err)
	}

	for tick := 0; tick < 25; tick++ {
		input := []float64{float64(tick) / 25, -float64(tick) / 50, 0.75, 0.25}
		if err := trajectory.Set(input[:2]); err != nil {
			t.Fatalf("set trajectory: %v", err)
		}
		got, err := controller.Tick(ctx)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}

		for i, v := range input {
			if err := reference.SetInput(i, v); err != nil {
				t.Fatalf("reference input: %v", err)
			}
		}
		if err := reference.Predict(); err != nil {
			t.Fatalf("reference predict: %v", err)
		}
		want := reference.Outputs()
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("tick %d output %d: got=%f want=%f", tick, i, got[i], want[i])
			}
		}
		if j := joints.Last(); len(j) != 2 || j[0] != want[0] || j[1] != want[1] {
			t.Fatalf("tick %d: unexpected joints output %v", tick, j)
		}
		if c := contacts.Last(); len(c) != 2 || c[0] != want[2] || c[1] != want[3] {
			t.Fatalf("tick %d: unexpected contacts output %v", tick, c)
		}
		if controller.Phase() != reference.Phase() {
			t.Fatalf("tick %d: phase diverged got=%f want=%f", tick, controller.Phase(), reference.Phase())
		}
	}
	if controller.Ticks() != 25 {
		t.Fatalf("unexpected tick count: %d", controller.Ticks())
	}
}
