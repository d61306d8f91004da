// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	shrinkBelow = 0.25
	growAbove   = 0.75
	nearBorder  = 0.95
	maxRadius   = 1e10
)

// dogleg computes trust-region steps along the dogleg path.
//
// # Dogleg Path
//
// With the Gauss-Newton step δₙ (minimum-norm solution of 𝐉δ ≅ -𝐫) and the
// Cauchy step δₛ = -ɑ𝐠 where ɑ = ‖𝐠‖² / ‖𝐉𝐠‖² minimizes the model along -𝐠:
//   - ‖δₙ‖ ≤ Δ : take δₙ
//   - ‖δₛ‖ ≥ Δ : take -Δ𝐠/‖𝐠‖
//   - otherwise : take δₛ + τ(δₙ - δₛ) with τ ∈ [0,1] such that the length is Δ
//
// With bounds, DogBox truncates the step to the box while TRF reflects it and
// falls back to truncation when the reflected step does not decrease the model.
//
// # Radius Update
//
//	ρ < ¼                  : Δ = ¼‖δ‖
//	ρ > ¾ and ‖δ‖ ≥ 0.95Δ   : Δ = 𝚖𝚒𝚗(2Δ, 1e10)
//	unusable proposal      : Δ = ¼Δ
type dogleg struct {
	radius     float64
	bounds     []Bound
	bounded    bool
	reflective bool

	version int
	gn, sd  []float64 // Gauss-Newton and Cauchy steps
	jg      []float64 // 𝐉𝐠
	trial   []float64 // reflected step
	work    []float64 // m
	gnNorm  float64
	sdNorm  float64
	gNorm   float64
}

func (d *dogleg) init(x []float64, lin *linearization) {
	m, n := lin.jac.Dims()
	d.gn = make([]float64, n)
	d.sd = make([]float64, n)
	d.jg = make([]float64, m)
	d.trial = make([]float64, n)
	d.work = make([]float64, m)
	d.version = -1
	d.radius = floats.Norm(x, 2)
	if d.radius == zero {
		d.radius = one
	}
}

// prepare computes the radius-independent parts of the dogleg path.
func (d *dogleg) prepare(lin *linearization) error {
	if _, err := solveGaussNewton(lin.jac, lin.r, d.gn); err != nil {
		return err
	}
	d.gnNorm = floats.Norm(d.gn, 2)
	d.gNorm = floats.Norm(lin.g, 2)

	applyJac(lin.jac, lin.g, d.jg)
	if jgSq := floats.Dot(d.jg, d.jg); jgSq > zero {
		alpha := d.gNorm * d.gNorm / jgSq
		floats.ScaleTo(d.sd, -alpha, lin.g)
		d.sdNorm = alpha * d.gNorm
	} else {
		for i := range d.sd {
			d.sd[i] = zero
		}
		d.sdNorm = math.Inf(1)
	}
	return nil
}

func (d *dogleg) propose(x []float64, lin *linearization, step []float64) error {
	if d.version != lin.version {
		if err := d.prepare(lin); err != nil {
			return err
		}
		d.version = lin.version
	}
	d.path(lin.g, step)
	if !d.bounded {
		return nil
	}
	if d.reflective {
		copy(d.trial, step)
		reflectIntoBounds(x, d.trial, d.bounds)
		if predictedReduction(lin.jac, lin.g, d.trial, d.work) > zero {
			copy(step, d.trial)
			return nil
		}
	}
	truncateToBounds(x, step, d.bounds)
	return nil
}

// path selects the point of the dogleg path at distance Δ.
func (d *dogleg) path(g, step []float64) {
	delta := d.radius
	switch {
	case d.gnNorm <= delta:
		copy(step, d.gn)
	case d.sdNorm >= delta:
		if d.gNorm == zero {
			for i := range step {
				step[i] = zero
			}
			return
		}
		floats.ScaleTo(step, -delta/d.gNorm, g)
	default:
		// ‖δₛ + τ𝐝‖² = Δ² where 𝐝 = δₙ - δₛ
		floats.SubTo(step, d.gn, d.sd)
		a := floats.Dot(step, step)
		b := two * floats.Dot(d.sd, step)
		c := d.sdNorm*d.sdNorm - delta*delta
		disc := math.Sqrt(b*b - 4*a*c)
		var tau float64
		if b > zero {
			tau = -two * c / (b + disc)
		} else {
			tau = (-b + disc) / (two * a)
		}
		tau = math.Min(math.Max(tau, zero), one)
		floats.Scale(tau, step)
		floats.Add(step, d.sd)
	}
}

func (d *dogleg) adapt(rho, stepNorm float64) {
	switch {
	case rho < shrinkBelow:
		d.radius = shrinkBelow * stepNorm
	case rho > growAbove && stepNorm >= nearBorder*d.radius:
		d.radius = math.Min(two*d.radius, maxRadius)
	}
}

func (d *dogleg) reject() {
	d.radius *= quarter
}

func (d *dogleg) control() float64 {
	return d.radius
}

// truncateToBounds keeps a step inside the box. Components pushing against an
// active bound are dropped, then the remaining step is scaled back along its
// direction until it meets the first bound, which it lands on exactly.
func truncateToBounds(x, step []float64, bounds []Bound) {
	for i, b := range bounds {
		if (x[i] <= b.Lower && step[i] < zero) || (x[i] >= b.Upper && step[i] > zero) {
			step[i] = zero
		}
	}
	t, k, edge := one, -1, zero
	for i, b := range bounds {
		var s float64
		switch y := x[i] + step[i]; {
		case y > b.Upper:
			s = (b.Upper - x[i]) / step[i]
		case y < b.Lower:
			s = (b.Lower - x[i]) / step[i]
		default:
			continue
		}
		if s < t {
			t, k = s, i
			edge = b.Upper
			if step[i] < zero {
				edge = b.Lower
			}
		}
	}
	if k < 0 {
		return
	}
	floats.Scale(t, step)
	step[k] = edge - x[k]
	// scaling may still leave other components a rounding error outside
	for i, b := range bounds {
		if y := x[i] + step[i]; y > b.Upper || y < b.Lower {
			step[i] = math.Min(math.Max(y, b.Lower), b.Upper) - x[i]
		}
	}
}
