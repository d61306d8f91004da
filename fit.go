// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curvefit

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/curvefit/lsq"
	"github.com/curioloop/curvefit/numdiff"
)

// Fit adjusts the parameters of f to minimize ½Σ(yᵢ - f(xᵢ, p))².
//
// The data lengths are checked first, then the configuration; no optimization
// work starts before both pass. Every parameter is seeded with cfg.P0 and the
// Jacobian is approximated by central differences.
//
// On convergence Fit returns an immutable Curve. Otherwise it returns a *LengthError,
// a *ConfigError, ErrNoData or a *FitError matching ErrNotConverged or ErrNumericalFailure.
func Fit[P Params](f Model[P], x, y []float64, cfg Config) (*Curve[P], error) {

	if len(x) != len(y) {
		return nil, &LengthError{XLen: len(x), YLen: len(y)}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrNoData
	}

	spec := numdiff.Spec[P]{
		Model:       numdiff.Model[P](f),
		Method:      numdiff.Central,
		CheckFinite: cfg.CheckFinite,
	}
	if err := spec.Check(x, y); err != nil {
		return nil, err
	}

	eval := func(v, r []float64, jac *mat.Dense) error {
		p := toParams[P](v)
		if r != nil {
			if err := spec.Residuals(p, x, y, r); err != nil {
				return err
			}
		}
		if jac == nil {
			return nil
		}
		if err := spec.Jacobian(p, x, jac); err != nil {
			return err
		}
		// ∂rᵢ/∂pⱼ = -∂f(xᵢ, p)/∂pⱼ
		jac.Scale(-1, jac)
		return nil
	}

	var p0 P
	n := len(p0)
	problem := lsq.Problem{
		N:      n,
		M:      len(x),
		Eval:   eval,
		Method: cfg.Method,
		Stop:   cfg.termination(n),
		Logger: cfg.Logger,
	}
	optimizer, err := problem.New()
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		p0[i] = cfg.P0
	}
	res := optimizer.Fit(fromParams(p0), optimizer.Init())
	if !res.OK {
		return nil, &FitError{
			Method:     cfg.Method,
			Status:     res.Status,
			Iterations: res.NumIter,
			Cost:       res.Cost,
			Cause:      res.Err,
		}
	}

	return &Curve[P]{
		model:   f,
		params:  toParams[P](res.X),
		method:  cfg.Method,
		summary: res.Summary,
	}, nil
}

func toParams[P Params](v []float64) (p P) {
	for i := 0; i < len(p); i++ {
		p[i] = v[i]
	}
	return
}

func fromParams[P Params](p P) []float64 {
	v := make([]float64, len(p))
	for i := range v {
		v[i] = p[i]
	}
	return v
}
