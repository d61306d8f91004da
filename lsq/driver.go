// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/curvefit/numdiff"
)

// iterLoc is the current iterate.
type iterLoc struct {
	x    []float64 // n
	r    []float64 // m
	cost float64   // ½‖𝐫‖²
}

// iterCtx holds the counters and working vectors of one optimization.
type iterCtx struct {
	iter    int
	numEval int
	numJac  int

	jac  *mat.Dense // m × n
	g    []float64  // n
	step []float64  // n
	xNew []float64  // n
	rNew []float64  // m
	work []float64  // m
}

func (c *iterCtx) init(n, m int) {
	c.jac = mat.NewDense(m, n, nil)
	c.g = make([]float64, n)
	c.step = make([]float64, n)
	c.xNew = make([]float64, n)
	c.rNew = make([]float64, m)
	c.work = make([]float64, m)
}

func (c *iterCtx) clear() {
	c.iter, c.numEval, c.numJac = 0, 0, 0
}

// iterDriver is the main driver for iterations in an optimization process,
// responsible for managing the flow of the optimization.
type iterDriver struct {
	optimizer *Optimizer
	workspace *Workspace
	location  *iterLoc
	stepper   stepper
	lin       linearization
}

// evaluate calls the evaluation target, turning a panic into ErrEvalPanic.
func (d *iterDriver) evaluate(x, r []float64, jac *mat.Dense) (err error) {
	o, w := d.optimizer, d.workspace
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrEvalPanic, p)
		}
	}()
	if r != nil {
		w.numEval++
	}
	if jac != nil {
		w.numJac++
	}
	return o.eval(x, r, jac)
}

// failure classifies an evaluation error.
func failure(err error) Status {
	if errors.Is(err, ErrNonFinite) || errors.Is(err, numdiff.ErrNonFinite) {
		return FailNonFinite
	}
	return FailEvaluation
}

// linearize evaluates the Jacobian at the current location and refreshes the gradient.
// The residuals at the current location are already in loc.r.
func (d *iterDriver) linearize() (Status, error) {
	w, loc := d.workspace, d.location
	if err := d.evaluate(loc.x, nil, w.jac); err != nil {
		return failure(err), err
	}
	gradient(w.jac, loc.r, w.g)
	if !allFinite(w.g) {
		return FailNonFinite, ErrNonFinite
	}
	d.lin.version++
	return iterLoop, nil
}

// mainLoop drives the iterate from its initial location to a terminal state.
//
//	Init → Iterating → {Converged, MaxIterationsReached, NumericalFailure}
func (d *iterDriver) mainLoop() (Status, error) {

	o, w, loc := d.optimizer, d.workspace, d.location
	log := o.logger

	w.clear()
	d.lin = linearization{jac: w.jac, r: loc.r, g: w.g}

	// Calculate 𝐫₀ and 𝐉₀
	if err := d.evaluate(loc.x, loc.r, nil); err != nil {
		return failure(err), err
	}
	loc.cost = half * floats.Dot(loc.r, loc.r)
	if !isFinite(loc.cost) {
		return FailNonFinite, ErrNonFinite
	}
	if task, err := d.linearize(); task != iterLoop {
		return task, err
	}
	d.stepper.init(loc.x, &d.lin)

	log.Debug("lsq: start",
		slog.String("method", o.method.String()),
		slog.Int("n", o.n), slog.Int("m", o.m),
		slog.Float64("cost", loc.cost),
		slog.Float64("control", d.stepper.control()))

	task := iterLoop
	var err error
	for task == iterLoop {
		if loc.cost == zero {
			task = ConvZeroResidual
			break
		}
		if w.iter >= o.stop.MaxIterations {
			task, err = OverIterLimit, ErrMaxIterations
			break
		}
		if task, err = d.trialStep(); task != iterLoop {
			break
		}
		task, err = d.linearize()
	}

	d.printLast(task, err)
	return task, err
}

// trialStep proposes and evaluates trial steps until one is accepted, the
// iteration converges, or the retry budget is exhausted.
func (d *iterDriver) trialStep() (Status, error) {

	o, w, loc := d.optimizer, d.workspace, d.location
	stop := o.stop

	if o.bounded && blockedByBounds(loc.x, w.g, o.bounds) {
		return ConvBound, nil
	}

	singular := 0

	for attempt := 0; attempt < stop.MaxRetries; attempt++ {

		if err := d.stepper.propose(loc.x, &d.lin, w.step); err != nil {
			if !errors.Is(err, ErrSingular) {
				return FailNonFinite, err
			}
			singular++
			d.stepper.reject()
			continue
		}

		floats.AddTo(w.xNew, loc.x, w.step)
		if floats.Equal(w.xNew, loc.x) {
			// the step vanished below the resolution of 𝐱
			if w.iter > 0 {
				return ConvXTol, nil
			}
			d.stepper.reject()
			continue
		}
		stepNorm := floats.Norm(w.step, 2)
		pred := predictedReduction(w.jac, w.g, w.step, w.work)
		if !(pred > zero) {
			d.stepper.reject()
			continue
		}

		if err := d.evaluate(w.xNew, w.rNew, nil); err != nil {
			return failure(err), err
		}

		cost := half * floats.Dot(w.rNew, w.rNew)
		actual := loc.cost - cost
		rho := actual / pred
		if !isFinite(cost) {
			rho = -one
		}
		d.stepper.adapt(rho, stepNorm)

		if rho <= acceptRatio {
			d.printReject(attempt, rho, stepNorm)
			continue
		}

		prev := loc.cost
		copy(loc.x, w.xNew)
		copy(loc.r, w.rNew)
		loc.cost = cost
		w.iter++
		d.printIter(rho, stepNorm)

		if actual <= stop.FTol*prev && rho > convergeRatio {
			return ConvFTol, nil
		}
		if stepNorm <= stop.XTol*(stop.XTol+floats.Norm(loc.x, 2)) {
			return ConvXTol, nil
		}
		return iterLoop, nil
	}

	if singular == stop.MaxRetries {
		return FailSingular, ErrSingular
	}
	return FailStepBudget, ErrStepBudget
}

func (d *iterDriver) printIter(rho, stepNorm float64) {
	d.optimizer.logger.Debug("lsq: accepted",
		slog.Int("iter", d.workspace.iter),
		slog.Float64("cost", d.location.cost),
		slog.Float64("rho", rho),
		slog.Float64("step", stepNorm),
		slog.Float64("control", d.stepper.control()))
}

func (d *iterDriver) printReject(attempt int, rho, stepNorm float64) {
	d.optimizer.logger.Debug("lsq: rejected",
		slog.Int("iter", d.workspace.iter),
		slog.Int("attempt", attempt),
		slog.Float64("rho", rho),
		slog.Float64("step", stepNorm),
		slog.Float64("control", d.stepper.control()))
}

func (d *iterDriver) printLast(task Status, err error) {
	attrs := []slog.Attr{
		slog.String("status", task.String()),
		slog.Int("iter", d.workspace.iter),
		slog.Int("eval", d.workspace.numEval),
		slog.Float64("cost", d.location.cost),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	d.optimizer.logger.LogAttrs(context.Background(), slog.LevelInfo, "lsq: finished", attrs...)
}
