package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	spfapi "spfnn/pkg/spfnn"
)

// readInputRows parses one input vector per CSV record. A first record that
// does not parse as numbers is treated as a header and skipped.
func readInputRows(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	var rows [][]float64
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		row := make([]float64, len(record))
		parseErr := error(nil)
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				parseErr = fmt.Errorf("record %d field %d: %w", line, i, err)
				break
			}
			row[i] = v
		}
		if parseErr != nil {
			if line == 1 {
				continue
			}
			return nil, parseErr
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeReplayCSV(w io.Writer, steps []spfapi.ReplayStep) error {
	writer := csv.NewWriter(w)
	if len(steps) > 0 {
		header := []string{"tick", "bucket", "phase"}
		for i := range steps[0].Outputs {
			header = append(header, fmt.Sprintf("y%d", i))
		}
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	for _, step := range steps {
		record := []string{
			strconv.Itoa(step.Tick),
			strconv.Itoa(step.Bucket),
			strconv.FormatFloat(step.Phase, 'g', -1, 64),
		}
		for _, v := range step.Outputs {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
