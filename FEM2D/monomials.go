package FEM2D

import (
	"github.com/OliariVictor/FEMcomparison/utils"
)

// MonomialExponents lists the exponents (a,b) of x^a y^b with a+b <= P, ordered by total degree
func MonomialExponents(P int) (exps [][2]int) {
	for d := 0; d <= P; d++ {
		for b := 0; b <= d; b++ {
			exps = append(exps, [2]int{d - b, b})
		}
	}
	return
}

func NumPolynomials(P int) int {
	if P < 0 {
		return 0
	}
	return (P + 1) * (P + 2) / 2
}

func monomial(x, y float64, a, b int) (val, dx, dy float64) {
	val = utils.POW(x, a) * utils.POW(y, b)
	if a > 0 {
		dx = float64(a) * utils.POW(x, a-1) * utils.POW(y, b)
	}
	if b > 0 {
		dy = float64(b) * utils.POW(x, a) * utils.POW(y, b-1)
	}
	return
}

/*
ScaledMonomials is the basis ((x-xc)/h)^a ((y-yc)/h)^b of P_P on one physical element. The first function is the constant 1.
*/
type ScaledMonomials struct {
	P    int
	Xc   [2]float64
	H    float64
	Exps [][2]int
}

func NewScaledMonomials(P int, X [3][2]float64) (sm *ScaledMonomials) {
	sm = &ScaledMonomials{
		P:    P,
		Xc:   Centroid(X),
		H:    Diameter(X),
		Exps: MonomialExponents(P),
	}
	return
}

func (sm *ScaledMonomials) Len() int { return len(sm.Exps) }

func (sm *ScaledMonomials) Scaled(x, y float64) (X, Y float64) {
	return (x - sm.Xc[0]) / sm.H, (y - sm.Xc[1]) / sm.H
}

// Eval returns the values and physical gradients of all the functions at (x,y)
func (sm *ScaledMonomials) Eval(x, y float64) (phi []float64, grad [][2]float64) {
	X, Y := sm.Scaled(x, y)
	phi = make([]float64, len(sm.Exps))
	grad = make([][2]float64, len(sm.Exps))
	for i, e := range sm.Exps {
		v, dx, dy := monomial(X, Y, e[0], e[1])
		phi[i] = v
		grad[i] = [2]float64{dx / sm.H, dy / sm.H}
	}
	return
}

// EvalValues skips the gradients
func (sm *ScaledMonomials) EvalValues(x, y float64) (phi []float64) {
	X, Y := sm.Scaled(x, y)
	phi = make([]float64, len(sm.Exps))
	for i, e := range sm.Exps {
		phi[i] = utils.POW(X, e[0]) * utils.POW(Y, e[1])
	}
	return
}

// Degree of function i
func (sm *ScaledMonomials) Degree(i int) int {
	return sm.Exps[i][0] + sm.Exps[i][1]
}

