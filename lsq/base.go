// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"errors"
	"math"
)

const (
	zero    = 0.0
	one     = 1.0
	two     = 2.0
	quarter = 0.25
	half    = 0.5
)

var epsilon = math.Nextafter(1, 2) - 1

// acceptRatio is the gain ratio a trial step must exceed to be accepted.
// It is shared by every method so that results stay comparable.
const acceptRatio = 1e-4

// convergeRatio is the gain ratio an accepted step must exceed for the ftol test.
const convergeRatio = 0.25

var (
	// ErrSingular reports a linear system that could not be solved reliably.
	ErrSingular = errors.New("lsq: singular or ill-conditioned linear system")
	// ErrStepBudget reports that no acceptable step was found within the retry budget.
	ErrStepBudget = errors.New("lsq: no acceptable step within retry budget")
	// ErrNonFinite reports a non-finite cost or gradient reached by the iteration.
	ErrNonFinite = errors.New("lsq: non-finite cost or gradient")
	// ErrEvalPanic reports a panic raised by the evaluation callback.
	ErrEvalPanic = errors.New("lsq: evaluation panic")
	// ErrMaxIterations reports that the iteration limit was reached before convergence.
	ErrMaxIterations = errors.New("lsq: iteration limit reached")
)

// Status is the terminal state of an optimization.
type Status int

const (
	iterLoop Status = iota
	// ConvZeroResidual the residual vanished exactly.
	ConvZeroResidual
	// ConvFTol the relative cost reduction of an accepted step fell below FTol.
	ConvFTol
	// ConvXTol the step norm fell below XTol relative to the parameter norm.
	ConvXTol
	// ConvBound every descent direction is blocked by an active bound.
	ConvBound
	// OverIterLimit the iteration limit was reached without convergence.
	OverIterLimit
	// FailEvaluation the evaluation callback returned an error or panicked.
	FailEvaluation
	// FailNonFinite the cost or gradient became NaN or infinite.
	FailNonFinite
	// FailSingular every step attempt hit a singular linear system.
	FailSingular
	// FailStepBudget no acceptable step was found within the retry budget.
	FailStepBudget
)

var statusText = [...]string{
	iterLoop:         "running",
	ConvZeroResidual: "converged: zero residual",
	ConvFTol:         "converged: relative cost reduction below ftol",
	ConvXTol:         "converged: step norm below xtol",
	ConvBound:        "converged: gradient blocked by active bounds",
	OverIterLimit:    "iteration limit reached",
	FailEvaluation:   "evaluation failed",
	FailNonFinite:    "non-finite cost or gradient",
	FailSingular:     "singular linear system",
	FailStepBudget:   "step retry budget exhausted",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusText) {
		return "unknown"
	}
	return statusText[s]
}

// Converged reports whether s is one of the convergence states.
func (s Status) Converged() bool {
	return s >= ConvZeroResidual && s <= ConvBound
}

// Failed reports whether s is a numerical failure state.
func (s Status) Failed() bool {
	return s >= FailEvaluation
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}
