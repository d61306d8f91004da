// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import "math"

// reflectIntoBounds bounces every component of a TRF step that would cross a
// bound back into the feasible interval:
//
//	𝐱ᵢ + δᵢ > 𝐮ᵢ  ⇒  𝐱ᵢ + δᵢ' = 2𝐮ᵢ - (𝐱ᵢ + δᵢ)
//	𝐱ᵢ + δᵢ < 𝐥ᵢ  ⇒  𝐱ᵢ + δᵢ' = 2𝐥ᵢ - (𝐱ᵢ + δᵢ)
//
// A reflection that overshoots the opposite bound is clipped to it.
// Reflection never lengthens a component, so the step stays inside the trust region.
func reflectIntoBounds(x, step []float64, bounds []Bound) {
	for i, b := range bounds {
		y := x[i] + step[i]
		switch {
		case y > b.Upper:
			y = 2*b.Upper - y
		case y < b.Lower:
			y = 2*b.Lower - y
		default:
			continue
		}
		y = math.Min(math.Max(y, b.Lower), b.Upper)
		step[i] = y - x[i]
	}
}
