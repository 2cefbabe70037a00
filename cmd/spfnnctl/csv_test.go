package main

import (
	"bytes"
	"strings"
	"testing"

	spfapi "spfnn/pkg/spfnn"
)

func TestReadInputRowsSkipsHeaderAndComments(t *testing.T) {
	input := "x0,x1\n# warmup\n1, 2\n-0.5,3e-1\n"
	rows, err := readInputRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != 2 || rows[1][0] != -0.5 || rows[1][1] != 0.3 {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if _, err := readInputRows(strings.NewReader("1,2\n1,x\n")); err == nil {
		t.Fatal("expected parse error after the first record")
	}
}

func TestWriteReplayCSV(t *testing.T) {
	var buf bytes.Buffer
	steps := []spfapi.ReplayStep{
		{Tick: 0, Bucket: 0, Phase: 0.5, Outputs: []float64{1, 2}},
		{Tick: 1, Bucket: 3, Phase: 0.75, Outputs: []float64{-1, 0.25}},
	}
	if err := writeReplayCSV(&buf, steps); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "tick,bucket,phase,y0,y1\n0,0,0.5,1,2\n1,3,0.75,-1,0.25\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}
