// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Method selects the step computation of the optimizer.
type Method int

const (
	// LM is the Levenberg-Marquardt damped Gauss-Newton method.
	LM Method = iota
	// DogBox is the dogleg trust-region method. Bounds truncate the step.
	DogBox
	// TRF is the trust-region-reflective method. Bounds reflect the step.
	TRF
)

var methodNames = [...]string{LM: "lm", DogBox: "dogbox", TRF: "trf"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	return m >= LM && m <= TRF
}

// ParseMethod maps a case-insensitive method name to its Method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if strings.EqualFold(s, name) {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("lsq: unknown method %q", s)
}

// Bound represents the bounds for an optimization variable.
// NaN or infinite values mean the side is unbounded.
type Bound struct {
	Lower, Upper float64
}

// Evaluation computes the residual vector r(x) into r when r is not nil, and
// the M×N Jacobian ∂r/∂x into jac when jac is not nil. The optimizer never
// requests both in one call.
type Evaluation func(x, r []float64, jac *mat.Dense) error

// Termination specifies the stopping criteria for the optimization algorithm.
type Termination struct {
	// The iteration stop when the number of accepted steps exceeds limit.
	MaxIterations int
	// The maximum number of rejected or unusable trial steps within one iteration.
	// Defaults to 64 when not positive.
	MaxRetries int
	// The iteration will stop when an accepted step satisfied:
	//   (Fₖ - Fₖ₊₁) ≤ 𝚏𝚝𝚘𝚕 × Fₖ and ρ > ¼
	FTol float64
	// The iteration will stop when an accepted step satisfied:
	//   ‖δ‖ ≤ 𝚡𝚝𝚘𝚕 × (𝚡𝚝𝚘𝚕 + ‖𝐱‖)
	XTol float64
}

// Problem specifies a nonlinear least-squares problem 𝚖𝚒𝚗 ½‖𝐫(𝐱)‖².
type Problem struct {
	N      int          // The number of variables
	M      int          // The number of residuals
	Eval   Evaluation   // Residuals and Jacobian
	Method Method       // Step computation
	Stop   Termination  // Stop condition
	Bounds []Bound      // Optional bounds, honoured by DogBox and TRF
	Logger *slog.Logger // Optional logger, discarded when nil
}

// New creates a new least-squares optimizer for given problem.
func (p *Problem) New() (optimizer *Optimizer, err error) {

	n, m := p.N, p.M
	eval, stop, bounds := p.Eval, p.Stop, p.Bounds

	if stop.MaxRetries <= 0 {
		stop.MaxRetries = 64
	}

	switch {
	case n <= 0:
		err = errors.New("lsq: problem dimension must greater than 0")
	case m <= 0:
		err = errors.New("lsq: residual count must greater than 0")
	case eval == nil:
		err = errors.New("lsq: evaluation target is required")
	case !p.Method.Valid():
		err = fmt.Errorf("lsq: unknown method %d", int(p.Method))
	case stop.MaxIterations <= 0:
		err = errors.New("lsq: max iteration must greater than 0")
	case !(stop.FTol >= zero) || math.IsInf(stop.FTol, 0):
		err = errors.New("lsq: ftol must be finite and not less than 0")
	case !(stop.XTol >= zero) || math.IsInf(stop.XTol, 0):
		err = errors.New("lsq: xtol must be finite and not less than 0")
	case bounds != nil && len(bounds) != n:
		err = errors.New("lsq: bounds size must equal to n")
	}

	if err != nil {
		return
	}

	if bounds == nil {
		bounds = make([]Bound, n)
		for i := range bounds {
			bounds[i] = Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
		}
	} else {
		bounds = slices.Clone(bounds)
		for k, b := range bounds {
			if math.IsNaN(b.Lower) {
				b.Lower = math.Inf(-1)
			}
			if math.IsNaN(b.Upper) {
				b.Upper = math.Inf(1)
			}
			if b.Lower >= b.Upper {
				return nil, fmt.Errorf("lsq: bound range at %d has no interior", k)
			}
			bounds[k] = b
		}
		if p.Method == LM && hasBounds(bounds) {
			return nil, errors.New("lsq: LM does not support bounds")
		}
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	optimizer = &Optimizer{
		lsqSpec{
			n: n, m: m,
			method:  p.Method,
			eval:    eval,
			stop:    stop,
			bounds:  bounds,
			bounded: hasBounds(bounds),
			logger:  logger,
		},
	}
	return
}

type lsqSpec struct {
	n, m    int
	method  Method
	eval    Evaluation
	stop    Termination
	bounds  []Bound
	bounded bool
	logger  *slog.Logger
}

// Optimizer solves nonlinear least-squares problems with the configured method.
type Optimizer struct {
	lsqSpec
}

// Workspace contains the state and context of the optimization process.
// Given n variables and m residuals the workspace holds an m×n Jacobian plus
// a handful of n- and m-vectors.
type Workspace struct {
	n, m int
	iterCtx
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool      // Whether the optimization was converged.
	Cost    float64   // Final cost ½‖𝐫‖².
	X       []float64 // Final solution.
	Err     error     // Cause of a non-converged termination.
	Summary           // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status  Status  // Final status after optimization.
	NumIter int     // Number of accepted iterations.
	NumEval int     // Number of residual evaluations.
	NumJac  int     // Number of Jacobian evaluations.
	Control float64 // Final damping factor (LM) or trust radius (DogBox, TRF).
}

// Init allocate the workspace for the optimizer.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n, w.m = o.n, o.m
	w.init(w.n, w.m)
	return w
}

// Fit runs the optimization process using the initial guess x and workspace w.
func (o *Optimizer) Fit(x []float64, w *Workspace) *Result {

	if len(x) != o.n {
		panic("initial x dimension not match spec")
	}

	if w.n != o.n || w.m != o.m {
		panic("workspace dimension not match spec")
	}

	loc := iterLoc{
		x: slices.Clone(x),
		r: make([]float64, o.m),
	}
	projectInto(loc.x, o.bounds)

	driver := iterDriver{
		optimizer: o,
		workspace: w,
		location:  &loc,
		stepper:   newStepper(o.method, o.bounds, o.bounded),
	}

	status, err := driver.mainLoop()
	return &Result{
		OK:   status.Converged(),
		X:    loc.x,
		Cost: loc.cost,
		Err:  err,
		Summary: Summary{
			Status:  status,
			NumIter: w.iter,
			NumEval: w.numEval,
			NumJac:  w.numJac,
			Control: driver.stepper.control(),
		},
	}
}
