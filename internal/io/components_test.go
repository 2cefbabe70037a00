package io

import (
	"context"
	"testing"
)

func TestScalarSensor(t *testing.T) {
	s := NewScalarSensor("speed", 0.25)
	values, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(values) != 1 || values[0] != 0.25 {
		t.Fatalf("unexpected sensor values: %+v", values)
	}

	s.Set(0.75)
	values, err = s.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if values[0] != 0.75 {
		t.Fatalf("unexpected updated value: %f", values[0])
	}
}

func TestVectorSensorWidth(t *testing.T) {
	s := NewVectorSensor("style", 3)
	if s.Width() != 3 {
		t.Fatalf("unexpected width: %d", s.Width())
	}
	if err := s.Set([]float64{1, 0, 0}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set([]float64{1}); err == nil {
		t.Fatal("expected width mismatch error")
	}
	values, _ := s.Read(context.Background())
	values[0] = 42
	again, _ := s.Read(context.Background())
	if again[0] != 1 {
		t.Fatalf("read leaked internal slice: %v", again)
	}
}

func TestRecordingActuator(t *testing.T) {
	a := NewRecordingActuator("pose")
	if err := a.Write(context.Background(), []float64{0.9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	last := a.Last()
	if len(last) != 1 || last[0] != 0.9 {
		t.Fatalf("unexpected actuator last output: %+v", last)
	}
}
