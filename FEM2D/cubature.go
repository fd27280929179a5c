package FEM2D

import (
	"fmt"
)

// Cubature holds points and weights on the reference triangle (0,0),(1,0),(0,1), the weights sum to 1/2
type Cubature struct {
	R, S, W []float64
	Nq      int
}

/*
NewCubature returns a collapsed Gauss-Jacobi rule exact for polynomials up to order P. The square [-1,1]^2 is mapped onto
the triangle with r=(1+a)(1-b)/4, s=(1+b)/2, the Jacobian (1-b)/8 is absorbed by a Gauss-Jacobi(1,0) rule in b.
*/
func NewCubature(P int) (cb *Cubature) {
	if P < 0 {
		panic(fmt.Errorf("cubature order must be >= 0, have %d", P))
	}
	n := P/2 + 1
	var (
		A, WA = JacobiGQ(0, 0, n-1)
		B, WB = JacobiGQ(1, 0, n-1)
	)
	cb = &Cubature{Nq: n * n}
	for j, b := range B {
		for i, a := range A {
			cb.R = append(cb.R, (1+a)*(1-b)/4)
			cb.S = append(cb.S, (1+b)/2)
			cb.W = append(cb.W, WA[i]*WB[j]/8)
		}
	}
	return
}

// LineQuadrature holds Gauss-Legendre points on [0,1] with weights summing to 1
type LineQuadrature struct {
	S, W []float64
	Nq   int
}

func NewLineQuadrature(P int) (lq *LineQuadrature) {
	n := P/2 + 1
	X, W := JacobiGQ(0, 0, n-1)
	lq = &LineQuadrature{Nq: n}
	for i := range X {
		lq.S = append(lq.S, (1+X[i])/2)
		lq.W = append(lq.W, W[i]/2)
	}
	return
}
