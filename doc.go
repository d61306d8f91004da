// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package curvefit fits scalar models y = f(x, p) with a fixed-size parameter
// vector p to observed samples by nonlinear least squares.
//
// The parameter count is part of the model's type, so a two-parameter line is
//
//	line := func(x float64, p [2]float64) float64 { return p[0]*x + p[1] }
//	curve, err := curvefit.Fit(line, xs, ys, curvefit.DefaultConfig())
//
// Three methods are available: LM (Levenberg-Marquardt), DogBox (dogleg trust
// region) and TRF (trust-region reflective). Fit takes no bounds, so DogBox and
// TRF run unconstrained here; the bounded variants are reachable through the
// lsq package.
//
// Residuals and Jacobians are computed by package numdiff and the iteration is
// driven by package lsq.
package curvefit
