// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import "math"

// hasBounds reports whether any side of any bound is finite.
func hasBounds(bounds []Bound) bool {
	for _, b := range bounds {
		if !math.IsInf(b.Lower, -1) || !math.IsInf(b.Upper, 1) {
			return true
		}
	}
	return false
}

// projectInto clips x into the feasible box.
//
//	𝚙𝚛𝚘𝚓 xᵢ = uᵢ    if xᵢ > uᵢ
//	𝚙𝚛𝚘𝚓 xᵢ = lᵢ    if xᵢ < lᵢ
//	𝚙𝚛𝚘𝚓 xᵢ = xᵢ    otherwise
func projectInto(x []float64, bounds []Bound) {
	for i, b := range bounds {
		x[i] = math.Min(math.Max(x[i], b.Lower), b.Upper)
	}
}

// blockedByBounds reports whether the gradient is non-zero but every descent
// component -gᵢ points out of an active bound, so that no feasible step can
// decrease the cost to first order.
func blockedByBounds(x, g []float64, bounds []Bound) bool {
	nonZero := false
	for i, b := range bounds {
		switch {
		case g[i] == zero:
		case g[i] < zero && x[i] >= b.Upper:
			nonZero = true
		case g[i] > zero && x[i] <= b.Lower:
			nonZero = true
		default:
			return false
		}
	}
	return nonZero
}
