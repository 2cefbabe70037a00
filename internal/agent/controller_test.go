package agent

import (
	"context"
	"errors"
	"testing"

	spfio "spfnn/internal/io"
	"spfnn/internal/model"
)

// echoEngine outputs the sum of its inputs on every channel and advances a
// fake phase by one per tick.
type echoEngine struct {
	cfg    model.Config
	inputs []float64
	out    []float64
	phase  float64
	fail   error
}

func newEchoEngine(xdim, ydim int) *echoEngine {
	return &echoEngine{
		cfg:    model.Config{Dims: model.Dims{XDim: xdim, HDim: 1, YDim: ydim}},
		inputs: make([]float64, xdim),
		out:    make([]float64, ydim),
	}
}

func (e *echoEngine) Config() model.Config { return e.cfg }

func (e *echoEngine) SetInput(index int, value float64) error {
	e.inputs[index] = value
	return nil
}

func (e *echoEngine) Predict() error {
	if e.fail != nil {
		return e.fail
	}
	sum := 0.0
	for _, v := range e.inputs {
		sum += v
	}
	for i := range e.out {
		e.out[i] = sum + float64(i)
	}
	e.phase++
	return nil
}

func (e *echoEngine) Outputs() []float64 { return append([]float64(nil), e.out...) }

func (e *echoEngine) Phase() float64 { return e.phase }

func TestControllerTickSensorToActuator(t *testing.T) {
	engine := newEchoEngine(3, 4)
	speed := spfio.NewScalarSensor("speed", 1)
	style := spfio.NewVectorSensor("style", 2)
	if err := style.Set([]float64{0.5, 0.25}); err != nil {
		t.Fatalf("set style: %v", err)
	}
	left := spfio.NewRecordingActuator("left")
	right := spfio.NewRecordingActuator("right")

	c, err := NewController("biped", engine, []spfio.Sensor{speed, style}, []spfio.Actuator{left, right})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	out, err := c.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(out) != 4 || out[0] != 1.75 || out[3] != 4.75 {
		t.Fatalf("unexpected outputs: %v", out)
	}
	if l := left.Last(); len(l) != 2 || l[0] != 1.75 || l[1] != 2.75 {
		t.Fatalf("unexpected left actuator: %v", l)
	}
	if r := right.Last(); len(r) != 2 || r[0] != 3.75 {
		t.Fatalf("unexpected right actuator: %v", r)
	}
	if c.Ticks() != 1 || c.Phase() != 1 {
		t.Fatalf("unexpected tick bookkeeping: ticks=%d phase=%f", c.Ticks(), c.Phase())
	}
}

func TestControllerRunStepValidatesWidth(t *testing.T) {
	c, err := NewController("c", newEchoEngine(2, 1), nil, nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := c.RunStep(context.Background(), []float64{1}); err == nil {
		t.Fatal("expected input size mismatch")
	}
	out, err := c.RunStep(context.Background(), []float64{1, 2})
	if err != nil {
		t.Fatalf("run step: %v", err)
	}
	if out[0] != 3 {
		t.Fatalf("unexpected output: %v", out)
	}
	if _, err := c.Tick(context.Background()); err == nil {
		t.Fatal("expected tick without sensors to fail")
	}
}

func TestControllerRejectsBadWiring(t *testing.T) {
	engine := newEchoEngine(2, 3)
	if _, err := NewController("", engine, nil, nil); err == nil {
		t.Fatal("expected missing id error")
	}
	if _, err := NewController("c", engine, []spfio.Sensor{spfio.NewScalarSensor("s", 0)}, nil); err == nil {
		t.Fatal("expected sensor width mismatch")
	}
	actuators := []spfio.Actuator{spfio.NewRecordingActuator("a"), spfio.NewRecordingActuator("b")}
	if _, err := NewController("c", engine, nil, actuators); err == nil {
		t.Fatal("expected actuator split mismatch")
	}
}

func TestControllerStopsOnCancelledContextAndEngineError(t *testing.T) {
	engine := newEchoEngine(1, 1)
	c, _ := NewController("c", engine, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.RunStep(ctx, []float64{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got=%v", err)
	}

	boom := errors.New("boom")
	engine.fail = boom
	if _, err := c.RunStep(context.Background(), []float64{1}); !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got=%v", err)
	}
	if c.Ticks() != 0 {
		t.Fatalf("failed steps must not count, ticks=%d", c.Ticks())
	}
}
