// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/curioloop/curvefit"
)

// Entry describes a registered model.
type Entry struct {
	Name    string
	Formula string
	Params  []string // parameter names in vector order

	eval func(x float64, p []float64) float64
	fit  func(x, y []float64, cfg curvefit.Config) (curvefit.Fitted, error)
}

// Arity returns the number of model parameters.
func (e Entry) Arity() int {
	return len(e.Params)
}

// Fit fits the model to (x, y) with curvefit.Fit.
func (e Entry) Fit(x, y []float64, cfg curvefit.Config) (curvefit.Fitted, error) {
	return e.fit(x, y, cfg)
}

// Eval applies the model to a parameter slice of length Arity.
func (e Entry) Eval(x float64, p []float64) (float64, error) {
	if len(p) != len(e.Params) {
		return 0, fmt.Errorf("models: %s takes %d parameters, got %d", e.Name, len(e.Params), len(p))
	}
	return e.eval(x, p), nil
}

var registry = map[string]Entry{}

func register[P curvefit.Params](name, formula string, params []string, f curvefit.Model[P]) {
	var zero P
	if len(zero) != len(params) {
		panic("models: parameter names of " + name + " do not match its arity")
	}
	registry[name] = Entry{
		Name:    name,
		Formula: formula,
		Params:  params,
		eval: func(x float64, v []float64) float64 {
			var p P
			for i := 0; i < len(p); i++ {
				p[i] = v[i]
			}
			return f(x, p)
		},
		fit: func(x, y []float64, cfg curvefit.Config) (curvefit.Fitted, error) {
			c, err := curvefit.Fit(f, x, y, cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

func init() {
	register("linear", "a*x + b", []string{"a", "b"}, Linear)
	register("quadratic", "a*x^2 + b*x + c", []string{"a", "b", "c"}, Quadratic)
	register("cubic", "a*x^3 + b*x^2 + c*x + d", []string{"a", "b", "c", "d"}, Cubic)
	register("exponential", "a*exp(b*x)", []string{"a", "b"}, Exponential)
	register("expdecay", "a*exp(-b*x) + c", []string{"a", "b", "c"}, ExpDecay)
	register("power", "a*x^b", []string{"a", "b"}, Power)
	register("logistic", "L / (1 + exp(-k*(x - x0)))", []string{"L", "k", "x0"}, Logistic)
	register("gaussian", "a*exp(-(x - mu)^2 / (2*sigma^2))", []string{"a", "mu", "sigma"}, Gaussian)
	register("sine", "a*sin(omega*x + phi) + c", []string{"a", "omega", "phi", "c"}, Sine)
}

// Lookup returns the model registered under the case-insensitive name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// Names returns the registered model names in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
