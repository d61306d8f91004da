// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// gradient computes 𝐠 = 𝐉ᵀ𝐫, the gradient of ½‖𝐫‖².
func gradient(jac *mat.Dense, r, g []float64) {
	gv := mat.NewVecDense(len(g), g)
	gv.MulVec(jac.T(), mat.NewVecDense(len(r), r))
}

// applyJac computes 𝐉𝐯 into dst.
func applyJac(jac *mat.Dense, v, dst []float64) {
	dv := mat.NewVecDense(len(dst), dst)
	dv.MulVec(jac, mat.NewVecDense(len(v), v))
}

// predictedReduction returns the decrease of the Gauss-Newton model
//
//	𝚖(δ) = ½‖𝐫 + 𝐉δ‖² = ½‖𝐫‖² + 𝐠ᵀδ + ½‖𝐉δ‖²
//
// for the step δ, that is -(𝐠ᵀδ + ½‖𝐉δ‖²). The m-vector work is overwritten.
func predictedReduction(jac *mat.Dense, g, step, work []float64) float64 {
	applyJac(jac, step, work)
	return -(floats.Dot(g, step) + half*floats.Dot(work, work))
}

// solveDamped solves the damped normal equations
//
//	(𝐉ᵀ𝐉 + λ·𝐃)δ = -𝐠   where 𝐃 = 𝚍𝚒𝚊𝚐(𝐉ᵀ𝐉)
//
// by Cholesky factorization. Zero diagonal entries of 𝐃 are lifted to
// 𝚎𝚙𝚜 × 𝚖𝚊𝚡(𝐃) so that a parameter the model ignores does not make the
// system singular on its own; an all-zero 𝐉ᵀ𝐉 stays singular.
func solveDamped(jtj *mat.SymDense, lambda float64, g, dst []float64, work *mat.SymDense) error {
	n := len(g)

	maxDiag := zero
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, jtj.At(i, i))
	}

	work.CopySym(jtj)
	for i := 0; i < n; i++ {
		d := math.Max(jtj.At(i, i), epsilon*maxDiag)
		work.SetSym(i, i, jtj.At(i, i)+lambda*d)
	}

	var chol mat.Cholesky
	if !chol.Factorize(work) {
		return ErrSingular
	}
	dv := mat.NewVecDense(n, dst)
	if err := chol.SolveVecTo(dv, mat.NewVecDense(n, g)); err != nil {
		return ErrSingular
	}
	floats.Scale(-1, dst)
	if !allFinite(dst) {
		return ErrSingular
	}
	return nil
}

// solveGaussNewton computes the minimum-norm solution of 𝐉δ ≅ -𝐫, which
// solves 𝐉ᵀ𝐉δ = -𝐉ᵀ𝐫 whenever 𝐉 has full column rank. Singular values below
// 𝚎𝚙𝚜 × 𝚖𝚊𝚡(m,n) × σ₁ are truncated. It returns the numerical rank of 𝐉.
func solveGaussNewton(jac *mat.Dense, r, dst []float64) (int, error) {
	m, n := jac.Dims()

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return 0, ErrSingular
	}

	dv := mat.NewVecDense(n, dst)
	rank := svd.Rank(epsilon * float64(max(m, n)))
	if rank == 0 {
		dv.Zero()
		return 0, nil
	}

	svd.SolveVecTo(dv, mat.NewVecDense(m, r), rank)
	floats.Scale(-1, dst)
	if !allFinite(dst) {
		return rank, ErrSingular
	}
	return rank, nil
}
