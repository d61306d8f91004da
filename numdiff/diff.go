// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

// Params is the set of fixed-size parameter vectors a model may take.
type Params interface {
	~[1]float64 | ~[2]float64 | ~[3]float64 | ~[4]float64 |
		~[5]float64 | ~[6]float64 | ~[7]float64 | ~[8]float64 |
		~[9]float64 | ~[10]float64 | ~[11]float64 | ~[12]float64
}

// Model maps an independent variable and a parameter vector to a scalar.
type Model[P Params] func(x float64, p P) float64

type Method int

const (
	// Central use the second order accuracy central difference.
	Central Method = iota
	// Forward use the first order accuracy forward difference.
	Forward
)

// Spec represents the residual and Jacobian evaluation of a scalar model
// against observed samples (x, y).
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
//
// # License
//
//   - https://github.com/scipy/scipy/blob/main/LICENSE.txt
type Spec[P Params] struct {
	// Function of which to estimate the derivatives.
	Model Model[P]
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute absolute step size.
	// The default absolute step size is h = ϵ × max(1, |p|) where ϵ is the cube root
	// of machine epsilon for Central and its square root for Forward.
	// Otherwise, absolute step size is computed as h = RelStep × |p| when RelStep is provided.
	RelStep float64
	// Check every residual and Jacobian entry and report the first non-finite value.
	CheckFinite bool
}

// Check the parameters before any evaluation.
func (s *Spec[P]) Check(x, y []float64) (err error) {
	switch {
	case s.Model == nil:
		err = errors.New("numdiff: model function is required")
	case s.Method != Forward && s.Method != Central:
		err = errors.New("numdiff: unknown method")
	case len(x) != len(y):
		err = errors.New("numdiff: x and y dimensions not match")
	case !(s.RelStep >= 0):
		err = errors.New("numdiff: relative step must not less than 0")
	}
	return
}

// Residuals computes rᵢ = yᵢ - f(xᵢ, p) for all samples.
func (s *Spec[P]) Residuals(p P, x, y, r []float64) error {
	if len(r) != len(x) || len(y) != len(x) {
		panic("bound check error")
	}
	f := s.Model
	for i, xi := range x {
		v := y[i] - f(xi, p)
		if s.CheckFinite && !finite(v) {
			return &NonFiniteError{Kind: KindResidual, Row: i, Col: -1, Value: v}
		}
		r[i] = v
	}
	return nil
}

// Jacobian approximates ∂f(xᵢ, p)/∂pⱼ for all samples into the len(x) × N matrix jac.
func (s *Spec[P]) Jacobian(p P, x []float64, jac *mat.Dense) error {
	m, n := jac.Dims()
	if m != len(x) || n != len(p) {
		panic("bound check error")
	}
	if s.Method == Forward {
		return s.approxForward(p, x, jac)
	}
	return s.approxCentral(p, x, jac)
}

// absoluteStep returns the step for parameter value v.
func (s *Spec[P]) absoluteStep(v float64) float64 {
	eps := cubeEps
	if s.Method == Forward {
		eps = sqrtEps
	}
	h := eps * math.Max(1.0, math.Abs(v))
	if s.RelStep > 0 {
		if r := s.RelStep * math.Abs(v); (v+r)-v != 0 {
			h = r
		}
	}
	return h
}

func (s *Spec[P]) approxForward(p P, x []float64, jac *mat.Dense) error {
	f, raw := s.Model, jac.RawMatrix()
	f0 := make([]float64, len(x))
	for i, xi := range x {
		f0[i] = f(xi, p)
	}
	for j := 0; j < len(p); j++ {
		v := p[j]
		h := s.absoluteStep(v)
		if v < 0 {
			h = -h
		}
		p[j] = v + h
		d := 1.0 / (p[j] - v)
		for i, xi := range x {
			df := (f(xi, p) - f0[i]) * d
			if s.CheckFinite && !finite(df) {
				return &NonFiniteError{Kind: KindJacobian, Row: i, Col: j, Value: df}
			}
			raw.Data[i*raw.Stride+j] = df
		}
		p[j] = v
	}
	return nil
}

func (s *Spec[P]) approxCentral(p P, x []float64, jac *mat.Dense) error {
	f, raw := s.Model, jac.RawMatrix()
	for j := 0; j < len(p); j++ {
		v := p[j]
		h := s.absoluteStep(v)
		hi, lo := v+h, v-h
		d := 1.0 / (hi - lo)
		for i, xi := range x {
			p[j] = hi
			f2 := f(xi, p)
			p[j] = lo
			f1 := f(xi, p)
			df := (f2 - f1) * d
			if s.CheckFinite && !finite(df) {
				return &NonFiniteError{Kind: KindJacobian, Row: i, Col: j, Value: df}
			}
			raw.Data[i*raw.Stride+j] = df
		}
		p[j] = v
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
