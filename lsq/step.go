// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import "gonum.org/v1/gonum/mat"

// linearization is the local model of the residual around the current iterate.
// version increases whenever jac is re-evaluated so that steppers can cache
// factorizations across the trial steps of one iteration.
type linearization struct {
	jac     *mat.Dense
	r, g    []float64
	version int
}

// stepper computes trial steps and owns the control value of its method
// (the damping factor λ for LM, the trust radius Δ for DogBox and TRF).
type stepper interface {
	// init sets the default control value from the initial linearization.
	init(x []float64, lin *linearization)
	// propose stores a trial step for the current control value into step.
	propose(x []float64, lin *linearization, step []float64) error
	// adapt updates the control value from the gain ratio of an evaluated trial.
	adapt(rho, stepNorm float64)
	// reject updates the control value after a proposal that could not be used.
	reject()
	// control returns the current control value.
	control() float64
}

func newStepper(method Method, bounds []Bound, bounded bool) stepper {
	switch method {
	case DogBox:
		return &dogleg{bounds: bounds, bounded: bounded}
	case TRF:
		return &dogleg{bounds: bounds, bounded: bounded, reflective: true}
	default:
		return new(levenbergMarquardt)
	}
}

var (
	_ stepper = (*levenbergMarquardt)(nil)
	_ stepper = (*dogleg)(nil)
)
