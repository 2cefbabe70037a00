package agent

import (
	"context"
	"fmt"

	spfio "spfnn/internal/io"
	"spfnn/internal/model"
)

// Engine is the per-tick surface the controller drives.
type Engine interface {
	Config() model.Config
	SetInput(index int, value float64) error
	Predict() error
	Outputs() []float64
	Phase() float64
}

// Controller runs one engine once per simulation tick: sensors fill the
// input vector in order, actuators receive the output vector.
type Controller struct {
	id        string
	engine    Engine
	sensors   []spfio.Sensor
	actuators []spfio.Actuator
	ticks     int
}

func NewController(
	id string,
	engine Engine,
	sensors []spfio.Sensor,
	actuators []spfio.Actuator,
) (*Controller, error) {
	if id == "" {
		return nil, fmt.Errorf("controller id is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	cfg := engine.Config()
	if len(sensors) > 0 {
		width := 0
		for _, s := range sensors {
			width += s.Width()
		}
		if width != cfg.XDim {
			return nil, fmt.Errorf("sensor width mismatch: got=%d want=%d", width, cfg.XDim)
		}
	}
	if len(actuators) > 1 && cfg.YDim%len(actuators) != 0 {
		return nil, fmt.Errorf("actuator/output shape mismatch: outputs=%d actuators=%d", cfg.YDim, len(actuators))
	}

	return &Controller{
		id:        id,
		engine:    engine,
		sensors:   append([]spfio.Sensor(nil), sensors...),
		actuators: append([]spfio.Actuator(nil), actuators...),
	}, nil
}

func (c *Controller) ID() string {
	return c.id
}

// Ticks is the number of successful steps taken so far.
func (c *Controller) Ticks() int {
	return c.ticks
}

func (c *Controller) Phase() float64 {
	return c.engine.Phase()
}

// Tick reads every sensor, predicts and writes the actuators.
func (c *Controller) Tick(ctx context.Context) ([]float64, error) {
	if len(c.sensors) == 0 {
		return nil, fmt.Errorf("controller %s has no sensors", c.id)
	}
	inputs := make([]float64, 0, c.engine.Config().XDim)
	for _, sensor := range c.sensors {
		values, err := sensor.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read sensor %s: %w", sensor.Name(), err)
		}
		if len(values) != sensor.Width() {
			return nil, fmt.Errorf("sensor %s returned %d values, declared width %d", sensor.Name(), len(values), sensor.Width())
		}
		inputs = append(inputs, values...)
	}

	return c.execute(ctx, inputs)
}

// RunStep predicts from an explicit input vector, bypassing sensors.
func (c *Controller) RunStep(ctx context.Context, inputs []float64) ([]float64, error) {
	return c.execute(ctx, inputs)
}

func (c *Controller) execute(ctx context.Context, inputs []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	xdim := c.engine.Config().XDim
	if len(inputs) != xdim {
		return nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(inputs), xdim)
	}

	for i, v := range inputs {
		if err := c.engine.SetInput(i, v); err != nil {
			return nil, err
		}
	}
	if err := c.engine.Predict(); err != nil {
		return nil, err
	}
	outputs := c.engine.Outputs()

	if len(c.actuators) > 0 {
		chunks, err := splitOutputsForActuators(outputs, len(c.actuators))
		if err != nil {
			return nil, err
		}
		for i, actuator := range c.actuators {
			if err := actuator.Write(ctx, chunks[i]); err != nil {
				return nil, fmt.Errorf("write actuator %s: %w", actuator.Name(), err)
			}
		}
	}

	c.ticks++
	return outputs, nil
}

func splitOutputsForActuators(outputs []float64, actuatorCount int) ([][]float64, error) {
	if actuatorCount <= 0 {
		return nil, fmt.Errorf("actuator count must be > 0")
	}
	if actuatorCount == 1 {
		return [][]float64{append([]float64(nil), outputs...)}, nil
	}
	if len(outputs)%actuatorCount != 0 {
		return nil, fmt.Errorf("actuator/output shape mismatch: outputs=%d actuators=%d", len(outputs), actuatorCount)
	}
	chunkSize := len(outputs) / actuatorCount
	chunks := make([][]float64, 0, actuatorCount)
	for i := 0; i < actuatorCount; i++ {
		start := i * chunkSize
		chunks = append(chunks, append([]float64(nil), outputs[start:start+chunkSize]...))
	}
	return chunks, nil
}
