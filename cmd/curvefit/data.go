// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// sampleColumns selects the x and y columns of a CSV table.
type sampleColumns struct {
	X, Y   int
	Header bool
}

// readSamples parses two numeric columns from r.
// Blank lines and lines starting with '#' are skipped.
func readSamples(r io.Reader, cols sampleColumns) (xs, ys []float64, err error) {
	if cols.X < 0 || cols.Y < 0 {
		return nil, nil, errors.New("column index must not be negative")
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for first := true; ; first = false {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if first && cols.Header {
			continue
		}
		line, _ := cr.FieldPos(0)
		x, err := parseField(record, cols.X, line)
		if err != nil {
			return nil, nil, err
		}
		y, err := parseField(record, cols.Y, line)
		if err != nil {
			return nil, nil, err
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}

func parseField(record []string, col, line int) (float64, error) {
	if col >= len(record) {
		return 0, fmt.Errorf("line %d: no column %d", line, col)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	return v, nil
}
