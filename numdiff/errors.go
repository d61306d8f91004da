// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"fmt"
)

// ErrNonFinite is matched by every *NonFiniteError.
var ErrNonFinite = errors.New("numdiff: non-finite value")

// Kind names the quantity in which a non-finite value was found.
type Kind string

const (
	KindResidual Kind = "residual"
	KindJacobian Kind = "jacobian"
)

// NonFiniteError reports the first NaN or infinite residual or Jacobian entry.
// Col is -1 for residuals.
type NonFiniteError struct {
	Kind  Kind
	Row   int
	Col   int
	Value float64
}

func (e *NonFiniteError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("numdiff: non-finite %s at index %d: %v", e.Kind, e.Row, e.Value)
	}
	return fmt.Sprintf("numdiff: non-finite %s entry at (%d, %d): %v", e.Kind, e.Row, e.Col, e.Value)
}

func (e *NonFiniteError) Unwrap() error {
	return ErrNonFinite
}
