// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package models is a catalogue of common one-dimensional curve models,
// addressable by name for callers that choose the model at run time.
package models

import "math"

// Linear is y = a·x + b with p = (a, b).
func Linear(x float64, p [2]float64) float64 {
	return p[0]*x + p[1]
}

// Quadratic is y = a·x² + b·x + c with p = (a, b, c).
func Quadratic(x float64, p [3]float64) float64 {
	return (p[0]*x+p[1])*x + p[2]
}

// Cubic is y = a·x³ + b·x² + c·x + d with p = (a, b, c, d).
func Cubic(x float64, p [4]float64) float64 {
	return ((p[0]*x+p[1])*x+p[2])*x + p[3]
}

// Exponential is y = a·eᵇˣ with p = (a, b).
func Exponential(x float64, p [2]float64) float64 {
	return p[0] * math.Exp(p[1]*x)
}

// ExpDecay is y = a·e⁻ᵇˣ + c with p = (a, b, c).
func ExpDecay(x float64, p [3]float64) float64 {
	return p[0]*math.Exp(-p[1]*x) + p[2]
}

// Power is y = a·xᵇ with p = (a, b). It is only defined for x > 0 when b is not an integer.
func Power(x float64, p [2]float64) float64 {
	return p[0] * math.Pow(x, p[1])
}

// Logistic is y = L / (1 + e^(-k(x-x₀))) with p = (L, k, x₀).
func Logistic(x float64, p [3]float64) float64 {
	return p[0] / (1 + math.Exp(-p[1]*(x-p[2])))
}

// Gaussian is y = a·e^(-(x-μ)²/2σ²) with p = (a, μ, σ).
func Gaussian(x float64, p [3]float64) float64 {
	z := (x - p[1]) / p[2]
	return p[0] * math.Exp(-0.5*z*z)
}

// Sine is y = a·sin(ωx + φ) + c with p = (a, ω, φ, c).
func Sine(x float64, p [4]float64) float64 {
	return p[0]*math.Sin(p[1]*x+p[2]) + p[3]
}
