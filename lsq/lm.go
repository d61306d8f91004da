// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	lmInitial  = 1e-3
	lmMin      = 1e-15
	lmMax      = 1e16
	lmDecrease = 3.0
	lmIncrease = 2.0
)

// levenbergMarquardt computes damped Gauss-Newton steps.
//
// # Damping
//
// The step solves (𝐉ᵀ𝐉 + λ·𝚍𝚒𝚊𝚐(𝐉ᵀ𝐉))δ = -𝐉ᵀ𝐫. Scaling the damping by the
// diagonal makes λ dimensionless: λ → 0 is the Gauss-Newton step and a large λ
// is a short steepest-descent step in the metric of 𝚍𝚒𝚊𝚐(𝐉ᵀ𝐉).
//
// After an accepted trial λ is divided by 3 (floor 1e-15); after a rejected trial
// or a singular system it is doubled (cap 1e16).
type levenbergMarquardt struct {
	lambda  float64
	jtj     *mat.SymDense
	work    *mat.SymDense
	version int
}

func (s *levenbergMarquardt) init(x []float64, lin *linearization) {
	n := len(x)
	s.lambda = lmInitial
	s.jtj = mat.NewSymDense(n, nil)
	s.work = mat.NewSymDense(n, nil)
	s.version = -1
}

func (s *levenbergMarquardt) propose(_ []float64, lin *linearization, step []float64) error {
	if s.version != lin.version {
		s.jtj.SymOuterK(one, lin.jac.T())
		s.version = lin.version
	}
	return solveDamped(s.jtj, s.lambda, lin.g, step, s.work)
}

func (s *levenbergMarquardt) adapt(rho, _ float64) {
	if rho > acceptRatio {
		s.lambda = math.Max(s.lambda/lmDecrease, lmMin)
	} else {
		s.reject()
	}
}

func (s *levenbergMarquardt) reject() {
	s.lambda = math.Min(s.lambda*lmIncrease, lmMax)
}

func (s *levenbergMarquardt) control() float64 {
	return s.lambda
}
