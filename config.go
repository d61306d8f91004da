// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curvefit

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/curioloop/curvefit/lsq"
)

// Method selects the step computation used by Fit.
type Method = lsq.Method

const (
	// LM is the Levenberg-Marquardt algorithm.
	LM = lsq.LM
	// DogBox is the dogleg trust-region algorithm.
	DogBox = lsq.DogBox
	// TRF is the trust-region-reflective algorithm.
	TRF = lsq.TRF
)

const (
	defaultFTol = 1e-8
	defaultXTol = 1e-8
	// minNormal is the smallest positive normal float64.
	minNormal = 0x1p-1022
)

// Config controls a single Fit call.
type Config struct {
	// P0 seeds every component of the initial parameter vector.
	// It must be a normal floating-point value: finite, non-zero and not subnormal.
	P0 float64
	// CheckFinite aborts the fit on the first NaN or infinite residual or Jacobian entry.
	CheckFinite bool
	// Method selects the step solver.
	Method Method

	// MaxIterations limits the accepted iterations. Zero means 100 × N.
	MaxIterations int
	// FTol is the relative cost reduction tolerance. Zero means 1e-8.
	FTol float64
	// XTol is the relative step size tolerance. Zero means 1e-8.
	XTol float64
	// Logger receives optimizer progress. Nil discards it.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when the caller has no preference.
func DefaultConfig() Config {
	return Config{
		P0:          1.0,
		CheckFinite: true,
		Method:      LM,
	}
}

// Violation describes a configuration field that failed its check.
type Violation struct {
	Field string
	Desc  string
	Value any
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s %s, got %v", v.Field, v.Desc, v.Value)
}

type rule struct {
	field string
	desc  string
	value func(c *Config) any
	check func(c *Config) bool
}

// configRules are evaluated in order; the first failure is the one reported by Validate.
var configRules = []rule{
	{
		field: "p0",
		desc:  "must be a normal floating-point value",
		value: func(c *Config) any { return c.P0 },
		check: func(c *Config) bool { return isNormal(c.P0) },
	},
	{
		field: "method",
		desc:  "must be one of lm, dogbox, trf",
		value: func(c *Config) any { return c.Method },
		check: func(c *Config) bool { return c.Method.Valid() },
	},
	{
		field: "max_iterations",
		desc:  "must not be negative",
		value: func(c *Config) any { return c.MaxIterations },
		check: func(c *Config) bool { return c.MaxIterations >= 0 },
	},
	{
		field: "ftol",
		desc:  "must be finite and not negative",
		value: func(c *Config) any { return c.FTol },
		check: func(c *Config) bool { return c.FTol >= 0 && !math.IsInf(c.FTol, 1) },
	},
	{
		field: "xtol",
		desc:  "must be finite and not negative",
		value: func(c *Config) any { return c.XTol },
		check: func(c *Config) bool { return c.XTol >= 0 && !math.IsInf(c.XTol, 1) },
	},
}

// Check returns every violated rule in declaration order.
func (c Config) Check() []Violation {
	var violations []Violation
	for _, r := range configRules {
		if !r.check(&c) {
			violations = append(violations, Violation{Field: r.field, Desc: r.desc, Value: r.value(&c)})
		}
	}
	return violations
}

// Validate reports the first violated rule of c as a *ConfigError.
func Validate(c Config) error {
	if v := c.Check(); len(v) > 0 {
		return &ConfigError{Violation: v[0]}
	}
	return nil
}

func (c Config) termination(n int) lsq.Termination {
	stop := lsq.Termination{
		MaxIterations: c.MaxIterations,
		FTol:          c.FTol,
		XTol:          c.XTol,
	}
	if stop.MaxIterations == 0 {
		stop.MaxIterations = 100 * n
	}
	if stop.FTol == 0 {
		stop.FTol = defaultFTol
	}
	if stop.XTol == 0 {
		stop.XTol = defaultXTol
	}
	return stop
}

func isNormal(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.Abs(v) >= minNormal
}
