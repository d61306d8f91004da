// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curvefit

import (
	"fmt"
	"strings"

	"github.com/curioloop/curvefit/lsq"
	"github.com/curioloop/curvefit/numdiff"
)

// Params is the set of fixed-size parameter vectors a model may take.
type Params = numdiff.Params

// Model maps an independent variable x and a parameter vector p to a scalar.
// It must be deterministic and free of side effects.
type Model[P Params] func(x float64, p P) float64

// Fitted is the arity-independent view of a Curve.
type Fitted interface {
	Eval(x float64) float64
	Values() []float64
	Summary() lsq.Summary
}

// Curve pairs a model with its fitted parameters. It is never mutated after Fit returns it.
type Curve[P Params] struct {
	model   Model[P]
	params  P
	method  Method
	summary lsq.Summary
}

// Eval applies the model to the fitted parameters at x.
func (c *Curve[P]) Eval(x float64) float64 {
	return c.model(x, c.params)
}

// EvalAll evaluates the curve at every x.
func (c *Curve[P]) EvalAll(xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = c.model(x, c.params)
	}
	return ys
}

// Params returns a copy of the fitted parameters.
func (c *Curve[P]) Params() P {
	return c.params
}

// Values returns the fitted parameters as a new slice.
func (c *Curve[P]) Values() []float64 {
	v := make([]float64, len(c.params))
	for i := range v {
		v[i] = c.params[i]
	}
	return v
}

// Method returns the method that produced the curve.
func (c *Curve[P]) Method() Method {
	return c.method
}

// Summary returns the optimizer summary of the fit.
func (c *Curve[P]) Summary() lsq.Summary {
	return c.summary
}

func (c *Curve[P]) String() string {
	var sb strings.Builder
	sb.WriteString("Curve{")
	for i := 0; i < len(c.params); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "p%d=%g", i, c.params[i])
	}
	fmt.Fprintf(&sb, "; %s, %s}", c.method, c.summary.Status)
	return sb.String()
}

var _ Fitted = (*Curve[[1]float64])(nil)
