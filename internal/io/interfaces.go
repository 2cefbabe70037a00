package io

import "context"

// Sensor supplies a contiguous run of the engine input vector each tick.
type Sensor interface {
	Name() string
	Width() int
	Read(ctx context.Context) ([]float64, error)
}

// ScalarSensorSetter is an optional sensor capability for single-value sensors.
type ScalarSensorSetter interface {
	Set(value float64)
}

// VectorSensorSetter is an optional sensor capability for fixed-width sensors.
type VectorSensorSetter interface {
	Set(values []float64) error
}

// Actuator receives a contiguous run of the engine output vector each tick.
type Actuator interface {
	Name() string
	Write(ctx context.Context, values []float64) error
}

// SnapshotActuator is an optional actuator capability exposing the most
// recent output it received.
type SnapshotActuator interface {
	Last() []float64
}
