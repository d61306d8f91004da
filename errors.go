// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curvefit

import (
	"errors"
	"fmt"

	"github.com/curioloop/curvefit/lsq"
)

var (
	// ErrNoData is returned when both data arrays are empty.
	ErrNoData = errors.New("curvefit: no data points")
	// ErrNumericalFailure is matched by fits that stopped because the math broke:
	// a non-finite value, a singular system, an exhausted step budget or a panicking model.
	ErrNumericalFailure = errors.New("curvefit: numerical failure")
	// ErrNotConverged is matched by fits that ran out of iterations.
	ErrNotConverged = errors.New("curvefit: not converged")
)

// LengthError reports x and y data of different lengths.
type LengthError struct {
	XLen, YLen int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("unmatched data length. x_data: %d != y_data: %d", e.XLen, e.YLen)
}

// ConfigError reports the first configuration field that failed validation.
type ConfigError struct {
	Violation Violation
}

func (e *ConfigError) Error() string {
	return "config " + e.Violation.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Violation
}

// FitError reports an optimization that ended without converging.
// It matches ErrNotConverged or ErrNumericalFailure, and the underlying cause.
type FitError struct {
	Method     Method
	Status     lsq.Status
	Iterations int
	Cost       float64
	Cause      error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("curvefit: %s stopped after %d iterations with cost %g: %s: %v",
		e.Method, e.Iterations, e.Cost, e.Status, e.Cause)
}

func (e *FitError) Unwrap() []error {
	kind := ErrNumericalFailure
	if e.Status == lsq.OverIterLimit {
		kind = ErrNotConverged
	}
	if e.Cause == nil {
		return []error{kind}
	}
	return []error{kind, e.Cause}
}
