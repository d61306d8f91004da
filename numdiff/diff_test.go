// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

func expDecay(x float64, p [3]float64) float64 {
	return p[0]*math.Exp(-p[1]*x) + p[2]
}

func expDecayJac(x float64, p [3]float64) []float64 {
	e := math.Exp(-p[1] * x)
	return []float64{e, -p[0] * x * e, 1}
}

func TestAbsoluteStep(t *testing.T) {

	for method, relStep := range map[Method]float64{
		Forward: sqrtEps,
		Central: cubeEps,
	} {
		s := Spec[[1]float64]{Method: method}
		for _, v := range []float64{1e-5, 0, 1, -1, 1e5, -1e5} {
			expected := relStep * math.Max(1, math.Abs(v))
			if !approxEqual(s.absoluteStep(v), expected, 1e-12) {
				t.Fatal("unexpected abs step", method, v)
			}
		}
	}

	// user-specified relative step
	s := Spec[[1]float64]{Method: Central, RelStep: 0.1}
	switch {
	case !approxEqual(s.absoluteStep(2), 0.2, 1e-12):
		t.Fatal("unexpected relative step")
	case !approxEqual(s.absoluteStep(0), cubeEps, 1e-12):
		t.Fatal("zero relative step must fall back to default")
	}
}

func TestResiduals(t *testing.T) {

	s := Spec[[2]float64]{Model: func(x float64, p [2]float64) float64 {
		return p[0]*x + p[1]
	}}

	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 8}
	r := make([]float64, len(x))
	if err := s.Residuals([2]float64{2, 1}, x, y, r); err != nil {
		t.Fatal("residuals failed", err)
	}
	if !cmp.Equal(r, []float64{0, 0, 0, 1}) {
		t.Fatal("unexpected residuals", r)
	}
}

func TestScalar(t *testing.T) {

	model := func(x float64, p [1]float64) float64 {
		return math.Sinh(p[0] * x)
	}
	x := []float64{1.0}
	p := [1]float64{1.0}
	expected := []float64{math.Cosh(1.0)}

	jac := mat.NewDense(1, 1, nil)

	s := Spec[[1]float64]{Model: model, Method: Forward}
	if err := s.Jacobian(p, x, jac); err != nil {
		t.Fatal("approx scalar failed", err)
	}
	if !approxEqual(jac.RawMatrix().Data, expected, 1e-6) {
		t.Fatal("unexpected approx scalar result")
	}

	s = Spec[[1]float64]{Model: model, Method: Central}
	if err := s.Jacobian(p, x, jac); err != nil {
		t.Fatal("approx scalar failed", err)
	}
	if !approxEqual(jac.RawMatrix().Data, expected, 1e-9) {
		t.Fatal("unexpected approx scalar result")
	}
}

func TestVector(t *testing.T) {

	x := []float64{0, 0.5, 1, 2, 4}
	p := [3]float64{2.0, 0.7, -1.0}

	expected := make([]float64, 0, len(x)*3)
	for _, xi := range x {
		expected = append(expected, expDecayJac(xi, p)...)
	}

	jac := mat.NewDense(len(x), 3, nil)

	s := Spec[[3]float64]{Model: expDecay, Method: Central}
	if err := s.Jacobian(p, x, jac); err != nil {
		t.Fatal("approx vector failed", err)
	}
	if maxErr := maxScaledError(jac.RawMatrix().Data, expected); maxErr > 1e-9 {
		t.Fatal("central approx accuracy not enough", maxErr)
	}

	s = Spec[[3]float64]{Model: expDecay, Method: Forward}
	if err := s.Jacobian(p, x, jac); err != nil {
		t.Fatal("approx vector failed", err)
	}
	if maxErr := maxScaledError(jac.RawMatrix().Data, expected); maxErr > 1e-6 {
		t.Fatal("forward approx accuracy not enough", maxErr)
	}
}

func TestLinearIsExact(t *testing.T) {

	s := Spec[[2]float64]{Model: func(x float64, p [2]float64) float64 {
		return p[0]*x + p[1]
	}}

	x := []float64{0, 1, 2, 3, 4}
	jac := mat.NewDense(len(x), 2, nil)
	if err := s.Jacobian([2]float64{2.5, 1.3}, x, jac); err != nil {
		t.Fatal("approx linear failed", err)
	}
	for i, xi := range x {
		if math.Abs(jac.At(i, 0)-xi) > 1e-9 || math.Abs(jac.At(i, 1)-1) > 1e-9 {
			t.Fatal("unexpected linear jacobian row", i, jac.RawRowView(i))
		}
	}
}

func TestNonFinite(t *testing.T) {

	reciprocal := func(x float64, p [1]float64) float64 {
		return p[0] / x
	}
	x := []float64{2, 1, 0, -1}
	y := []float64{0, 0, 0, 0}
	r := make([]float64, len(x))
	jac := mat.NewDense(len(x), 1, nil)

	s := Spec[[1]float64]{Model: reciprocal, CheckFinite: true}

	err := s.Residuals([1]float64{1}, x, y, r)
	var nfe *NonFiniteError
	switch {
	case !errors.As(err, &nfe):
		t.Fatal("expect non-finite residual error", err)
	case !errors.Is(err, ErrNonFinite):
		t.Fatal("non-finite error must match sentinel")
	case nfe.Kind != KindResidual || nfe.Row != 2 || nfe.Col != -1:
		t.Fatal("unexpected non-finite location", nfe)
	}

	err = s.Jacobian([1]float64{1}, x, jac)
	switch {
	case !errors.As(err, &nfe):
		t.Fatal("expect non-finite jacobian error", err)
	case nfe.Kind != KindJacobian || nfe.Row != 2 || nfe.Col != 0:
		t.Fatal("unexpected non-finite location", nfe)
	}

	s.CheckFinite = false
	if err = s.Residuals([1]float64{1}, x, y, r); err != nil {
		t.Fatal("unchecked residuals must not fail", err)
	}
	if !math.IsInf(r[2], -1) {
		t.Fatal("unchecked residual must keep the raw value", r[2])
	}
}

func TestCheck(t *testing.T) {

	model := func(x float64, p [1]float64) float64 { return p[0] }

	for name, spec := range map[string]Spec[[1]float64]{
		"nil model":  {},
		"bad method": {Model: model, Method: 7},
		"nan step":   {Model: model, RelStep: math.NaN()},
	} {
		if spec.Check([]float64{1}, []float64{1}) == nil {
			t.Fatal("expect check error:", name)
		}
	}

	s := Spec[[1]float64]{Model: model}
	switch {
	case s.Check([]float64{1, 2}, []float64{1}) == nil:
		t.Fatal("expect dimension error")
	case s.Check([]float64{1, 2}, []float64{1, 2}) != nil:
		t.Fatal("unexpected check error")
	}
}

func maxScaledError(actual, expected []float64) float64 {
	maxErr := 0.0
	for i := range actual {
		absErr := math.Abs(expected[i] - actual[i])
		absErr /= math.Max(1, math.Abs(actual[i]))
		maxErr = math.Max(maxErr, absErr)
	}
	return maxErr
}

// approxEqual compares scalars or vectors within a relative tolerance.
func approxEqual(a, b any, tol float64) bool {
	return cmp.Equal(a, b, cmpopts.EquateApprox(tol, 0))
}
