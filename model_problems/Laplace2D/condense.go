package Laplace2D

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/utils"
)

/*
condensedGroup is the Schur complement of an element system on its retained unknowns,
	Kc = Krr - Kri Kii^-1 Kir,  Fc = Fr - Kri Kii^-1 Fi
with X = Kii^-1 Kir and y = Kii^-1 Fi kept to recover the internal unknowns, ui = y - X ur.
*/
type condensedGroup struct {
	Kc *mat.Dense
	Fc *mat.VecDense
	X  *mat.Dense
	y  *mat.VecDense
}

func condense(K *mat.Dense, F *mat.VecDense, nR int) (cg condensedGroup, err error) {
	var (
		n, _ = K.Dims()
		nI   = n - nR
	)
	if nI == 0 {
		cg.Kc, cg.Fc = K, F
		return
	}
	var (
		Krr = K.Slice(0, nR, 0, nR)
		Kri = K.Slice(0, nR, nR, n)
		Kir = K.Slice(nR, n, 0, nR)
		Kii = K.Slice(nR, n, nR, n)
		Fr  = F.SliceVec(0, nR)
		Fi  = F.SliceVec(nR, n)
		lu  mat.LU
	)
	lu.Factorize(Kii)
	cg.X = mat.NewDense(nI, nR, nil)
	if err = lu.SolveTo(cg.X, false, Kir); err != nil {
		err = fmt.Errorf("singular internal block of size %d: %w", nI, err)
		return
	}
	cg.y = mat.NewVecDense(nI, nil)
	if err = lu.SolveVecTo(cg.y, false, Fi); err != nil {
		err = fmt.Errorf("singular internal block of size %d: %w", nI, err)
		return
	}
	var tmp mat.Dense
	tmp.Mul(Kri, cg.X)
	cg.Kc = mat.NewDense(nR, nR, nil)
	cg.Kc.Sub(Krr, &tmp)
	var tv mat.VecDense
	tv.MulVec(Kri, cg.y)
	cg.Fc = mat.NewVecDense(nR, nil)
	cg.Fc.SubVec(Fr, &tv)
	return
}

// expand returns the full local coefficients, retained first, from the retained values
func (cg *condensedGroup) expand(ur []float64) (full []float64) {
	nR := len(ur)
	if cg.X == nil {
		return append([]float64(nil), ur...)
	}
	nI, _ := cg.X.Dims()
	full = make([]float64, nR+nI)
	copy(full, ur)
	for i := 0; i < nI; i++ {
		full[nR+i] = cg.y.AtVec(i) - utils.Dot(cg.X.RawRowView(i), ur)
	}
	return
}
