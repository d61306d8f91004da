// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/curioloop/curvefit"
	"github.com/curioloop/curvefit/lsq"
	"github.com/curioloop/curvefit/models"
)

// fitReport is the JSON document written by the fit command.
type fitReport struct {
	Model       string             `json:"model"`
	Formula     string             `json:"formula"`
	Method      string             `json:"method"`
	Params      map[string]float64 `json:"params"`
	Values      []float64          `json:"values"`
	Status      string             `json:"status"`
	Iterations  int                `json:"iterations"`
	Evaluations int                `json:"evaluations"`
	Samples     int                `json:"samples"`
	Cost        float64            `json:"cost"`
	Predictions []prediction       `json:"predictions,omitempty"`
}

type prediction struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func newFitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to CSV samples",
		Long: `Reads x and y columns from a CSV file (or stdin with --data -), fits the
selected model and writes the fitted parameters as JSON.`,
		Example: `  curvefit fit --data samples.csv --model expdecay --method trf
  curvefit fit --data - --header --x-col 1 --y-col 2 --eval 0.5,1.5 < table.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFit(cmd)
		},
	}

	addFitFlags(cmd.Flags())
	return cmd
}

func addFitFlags(flags *pflag.FlagSet) {
	flags.String("data", "", "CSV file with the samples, - for stdin (required)")
	flags.String("model", "linear", "Model name, see 'curvefit models'")
	flags.String("method", "lm", "Optimization method (lm, dogbox, trf)")
	flags.Float64("p0", 1, "Initial value of every parameter")
	flags.Bool("check-finite", true, "Fail on the first non-finite residual or Jacobian entry")
	flags.Int("max-iter", 0, "Iteration limit, 0 means 100 per parameter")
	flags.Float64("ftol", 0, "Relative cost reduction tolerance, 0 means 1e-8")
	flags.Float64("xtol", 0, "Relative step tolerance, 0 means 1e-8")
	flags.Bool("header", false, "Skip the first CSV record")
	flags.Int("x-col", 0, "Zero-based column of x")
	flags.Int("y-col", 1, "Zero-based column of y")
	flags.StringSlice("eval", nil, "Evaluate the fitted curve at these x (comma separated)")
}

func (a *app) runFit(cmd *cobra.Command) error {
	v := a.v

	entry, ok := models.Lookup(v.GetString("model"))
	if !ok {
		return fmt.Errorf("unknown model %q, available: %v", v.GetString("model"), models.Names())
	}
	method, err := lsq.ParseMethod(v.GetString("method"))
	if err != nil {
		return err
	}

	path := v.GetString("data")
	if path == "" {
		return fmt.Errorf("--data is required")
	}
	xs, ys, err := a.loadSamples(cmd, path)
	if err != nil {
		return err
	}

	cfg := curvefit.Config{
		P0:            v.GetFloat64("p0"),
		CheckFinite:   v.GetBool("check-finite"),
		Method:        method,
		MaxIterations: v.GetInt("max-iter"),
		FTol:          v.GetFloat64("ftol"),
		XTol:          v.GetFloat64("xtol"),
		Logger:        a.logger,
	}

	a.logger.Info("fitting",
		"model", entry.Name, "method", method.String(), "samples", len(xs), "p0", cfg.P0)

	curve, err := entry.Fit(xs, ys, cfg)
	if err != nil {
		return fmt.Errorf("fit %s: %w", entry.Name, err)
	}

	points, err := parsePoints(v.GetStringSlice("eval"))
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), newReport(entry, method, curve, xs, ys, points))
}

func (a *app) loadSamples(cmd *cobra.Command, path string) ([]float64, []float64, error) {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data: %w", err)
		}
		defer f.Close()
		in = f
	}

	cols := sampleColumns{
		X:      a.v.GetInt("x-col"),
		Y:      a.v.GetInt("y-col"),
		Header: a.v.GetBool("header"),
	}
	xs, ys, err := readSamples(in, cols)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data: %w", err)
	}
	a.logger.Debug("loaded samples", "path", path, "count", len(xs))
	return xs, ys, nil
}

// parsePoints accepts the eval points from a flag, a config list or a
// comma or space separated environment value.
func parsePoints(values []string) ([]float64, error) {
	var points []float64
	for _, value := range values {
		fields := strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		for _, field := range fields {
			x, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid eval point %q: %w", field, err)
			}
			points = append(points, x)
		}
	}
	return points, nil
}

func newReport(entry models.Entry, method curvefit.Method, curve curvefit.Fitted, xs, ys, points []float64) *fitReport {
	values := curve.Values()
	summary := curve.Summary()

	report := &fitReport{
		Model:       entry.Name,
		Formula:     entry.Formula,
		Method:      method.String(),
		Params:      make(map[string]float64, len(values)),
		Values:      values,
		Status:      summary.Status.String(),
		Iterations:  summary.NumIter,
		Evaluations: summary.NumEval,
		Samples:     len(xs),
	}
	for i, name := range entry.Params {
		report.Params[name] = values[i]
	}
	for i, x := range xs {
		r := ys[i] - curve.Eval(x)
		report.Cost += 0.5 * r * r
	}
	for _, x := range points {
		report.Predictions = append(report.Predictions, prediction{X: x, Y: curve.Eval(x)})
	}
	return report
}

func writeReport(w io.Writer, report *fitReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
