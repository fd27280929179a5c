package FEM2D

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}

/*
JacobiGQ computes the N+1 point Gauss quadrature for the weight (1-x)^alpha (1+x)^beta on [-1,1], the points are
the eigenvalues of the symmetric tridiagonal Jacobi matrix and the weights come from the first eigenvector components
*/
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}
	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}
	// main diagonal: diag(-(alpha^2-beta^2)./(h1+2)./h1), the full value since only the upper band is stored
	d0 = make([]float64, N+1)
	fac = -(alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}
	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}
	JJ := mat.NewSymDense(N+1, nil)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < N {
			JJ.SetSym(i, i+1, d1[i])
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)
	VVr := mat.NewDense(N+1, N+1, nil)
	eig.VectorsTo(VVr)
	W = make([]float64, N+1)
	g0 := gamma0(alpha, beta)
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiP evaluates the orthonormal Jacobi polynomial of order N at r
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(r)
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	p = make([]float64, Nc)
	if N == 0 {
		for i := range p {
			p[i] = rg
		}
		return
	}
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	for i, x := range r {
		pm1 := rg
		pc := rg1 * ((ab+2.0)*x/2.0 + (alpha-beta)/2.0)
		aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
		for n := 0; n < N-1; n++ {
			np1 := float64(n + 1)
			np2 := np1 + 1
			h1 := 2.0*np1 + ab
			anew := 2.0 / (h1 + 2.0) * math.Sqrt(np2*(np1+ab1)*(np1+a1)*(np1+b1)/(h1+1.0)/(h1+3.0))
			bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
			pm1, pc = pc, (-aold*pm1+(x-bnew)*pc)/anew
			aold = anew
		}
		p[i] = pc
	}
	return
}

// Legendre evaluates the orthonormal Legendre polynomial of order j at s in [0,1]
func Legendre(j int, s float64) float64 {
	return math.Sqrt2 * JacobiP([]float64{2*s - 1}, 0, 0, j)[0]
}
