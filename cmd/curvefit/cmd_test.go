// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/curioloop/curvefit"
)

const lineCSV = `x,y
0,1.3
1,3.8
2,6.3
3,8.8
4,11.3
`

func execute(stdin string, args ...string) (string, string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(name, content string) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

func decodeReport(out string) fitReport {
	var report fitReport
	ExpectWithOffset(1, json.Unmarshal([]byte(out), &report)).To(Succeed())
	return report
}

var _ = Describe("fit", func() {
	var data string

	BeforeEach(func() {
		data = writeFile("line.csv", lineCSV)
	})

	Context("with a CSV file", func() {
		It("should report the fitted line", func() {
			out, _, err := execute("", "fit", "--data", data, "--header", "--eval", "10")
			Expect(err).NotTo(HaveOccurred())

			report := decodeReport(out)
			Expect(report.Model).To(Equal("linear"))
			Expect(report.Method).To(Equal("lm"))
			Expect(report.Samples).To(Equal(5))
			Expect(report.Params).To(HaveKeyWithValue("a", BeNumerically("~", 2.5, 1e-6)))
			Expect(report.Params).To(HaveKeyWithValue("b", BeNumerically("~", 1.3, 1e-6)))
			Expect(report.Status).To(HavePrefix("converged"))
			Expect(report.Cost).To(BeNumerically("<", 1e-10))
			Expect(report.Predictions).To(HaveLen(1))
			Expect(report.Predictions[0].Y).To(BeNumerically("~", 26.3, 1e-4))
		})

		It("should honour the method flag", func() {
			for _, method := range []string{"dogbox", "trf"} {
				out, _, err := execute("", "fit", "--data", data, "--header", "--method", method)
				Expect(err).NotTo(HaveOccurred())
				Expect(decodeReport(out).Method).To(Equal(method))
			}
		})
	})

	Context("with stdin", func() {
		It("should read the samples from stdin", func() {
			out, _, err := execute(lineCSV, "fit", "--data", "-", "--header")
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeReport(out).Params).To(HaveKeyWithValue("a", BeNumerically("~", 2.5, 1e-6)))
		})
	})

	Context("with environment and config file", func() {
		It("should take the method from the environment", func() {
			GinkgoT().Setenv("CURVEFIT_METHOD", "trf")
			out, _, err := execute("", "fit", "--data", data, "--header")
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeReport(out).Method).To(Equal("trf"))
		})

		It("should take settings from the config file", func() {
			config := writeFile("curvefit.yaml", "model: quadratic\nmethod: dogbox\nheader: true\n")
			out, _, err := execute("", "--config", config, "fit", "--data", data)
			Expect(err).NotTo(HaveOccurred())

			report := decodeReport(out)
			Expect(report.Model).To(Equal("quadratic"))
			Expect(report.Method).To(Equal("dogbox"))
			Expect(report.Params).To(HaveKeyWithValue("a", BeNumerically("~", 0, 1e-6)))
		})

		It("should take eval points from the environment", func() {
			GinkgoT().Setenv("CURVEFIT_EVAL", "2,3")
			out, _, err := execute("", "fit", "--data", data, "--header")
			Expect(err).NotTo(HaveOccurred())

			report := decodeReport(out)
			Expect(report.Predictions).To(HaveLen(2))
			Expect(report.Predictions[1].X).To(Equal(3.0))
			Expect(report.Predictions[1].Y).To(BeNumerically("~", 8.8, 1e-5))
		})

		It("should take eval points from the config file", func() {
			config := writeFile("curvefit.yaml", "header: true\neval: [0.5, 1.5, 4]\n")
			out, _, err := execute("", "--config", config, "fit", "--data", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeReport(out).Predictions).To(HaveLen(3))
		})

		It("should let flags override the config file", func() {
			config := writeFile("curvefit.yaml", "method: dogbox\n")
			out, _, err := execute("", "--config", config, "fit", "--data", data, "--header", "--method", "lm")
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeReport(out).Method).To(Equal("lm"))
		})
	})

	Context("with invalid input", func() {
		It("should reject an unknown model", func() {
			_, _, err := execute("", "fit", "--data", data, "--model", "spline")
			Expect(err).To(MatchError(ContainSubstring("unknown model")))
		})

		It("should reject an unknown method", func() {
			_, _, err := execute("", "fit", "--data", data, "--header", "--method", "bfgs")
			Expect(err).To(HaveOccurred())
		})

		It("should reject a bad eval point", func() {
			_, _, err := execute("", "fit", "--data", data, "--header", "--eval", "1,abc")
			Expect(err).To(MatchError(ContainSubstring(`invalid eval point "abc"`)))
		})

		It("should require the data flag", func() {
			_, _, err := execute("", "fit")
			Expect(err).To(MatchError(ContainSubstring("--data is required")))
		})

		It("should surface configuration errors", func() {
			_, _, err := execute("", "fit", "--data", data, "--header", "--p0", "0")
			var configErr *curvefit.ConfigError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Violation.Field).To(Equal("p0"))
		})

		It("should fail on a header parsed as data", func() {
			_, _, err := execute("", "fit", "--data", data)
			Expect(err).To(MatchError(ContainSubstring("failed to read data")))
		})

		It("should reject an unknown log format", func() {
			_, _, err := execute("", "--log-format", "xml", "version")
			Expect(err).To(MatchError(ContainSubstring("invalid log format")))
		})
	})

	Context("with debug logging", func() {
		It("should log the optimizer progress as JSON", func() {
			_, stderr, err := execute("", "--log-level", "debug", "--log-format", "json",
				"fit", "--data", data, "--header")
			Expect(err).NotTo(HaveOccurred())
			Expect(stderr).To(ContainSubstring(`"msg":"lsq: finished"`))
			Expect(stderr).To(ContainSubstring(`"msg":"loaded samples"`))
		})
	})
})

var _ = Describe("models", func() {
	It("should list every built-in model", func() {
		out, _, err := execute("", "models")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("NAME"))
		for _, name := range []string{"linear", "expdecay", "gaussian", "sine"} {
			Expect(out).To(ContainSubstring(name))
		}
	})
})

var _ = Describe("version", func() {
	It("should print the build version", func() {
		out, _, err := execute("", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("curvefit dev\n"))
	})
})

var _ = Describe("readSamples", func() {
	It("should skip comments and select columns", func() {
		in := "# t, label, value\n1, a, 10\n\n2, b, 20\n"
		xs, ys, err := readSamples(strings.NewReader(in), sampleColumns{X: 0, Y: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(xs).To(Equal([]float64{1, 2}))
		Expect(ys).To(Equal([]float64{10, 20}))
	})

	It("should report the line of a bad value", func() {
		_, _, err := readSamples(strings.NewReader("1,2\n3,x\n"), sampleColumns{X: 0, Y: 1})
		Expect(err).To(MatchError(HavePrefix("line 2 column 1")))
	})

	It("should report a missing column", func() {
		_, _, err := readSamples(strings.NewReader("1,2\n"), sampleColumns{X: 0, Y: 3})
		Expect(err).To(MatchError("line 1: no column 3"))
	})

	It("should reject negative columns", func() {
		_, _, err := readSamples(strings.NewReader("1,2\n"), sampleColumns{X: -1, Y: 1})
		Expect(err).To(HaveOccurred())
	})
})
