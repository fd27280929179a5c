package Laplace2D

import (
	"math"

	"github.com/OliariVictor/FEMcomparison/FEM2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
)

// errorIntegrationOrder over-integrates the polynomial degree to resolve the non polynomial exact solutions
func errorIntegrationOrder(ps *ProblemSpec) int {
	return 2*(ps.K+ps.N) + 6
}

// integrate visits every cubature point of every element with its discrete field values and physical weight
func integrate(sf *SolvedField, fn func(fv fieldValues, x, y, w float64)) {
	var (
		ds  = sf.Space
		cub = FEM2D.NewCubature(errorIntegrationOrder(ds.Problem))
	)
	for g, group := range ds.Groups {
		var (
			k   = group.Element
			am  = ds.Maps[k]
			det = math.Abs(am.Det)
		)
		for q := 0; q < cub.Nq; q++ {
			fv := ds.system.evaluate(k, sf.Coeffs[g], cub.R[q], cub.S[q])
			x, y := am.Map(cub.R[q], cub.S[q])
			fn(fv, x, y, cub.W[q]*det)
		}
	}
}

/*
primalNorms are the norms of a potential based approximation:
	[0] L2 of u - u_h
	[1] L2 of the flux difference, the discrete flux follows the sign convention
	[2] H1 of u - u_h
	[3] energy, L2 of K^1/2 grad(u - u_h)
*/
func primalNorms(sf *SolvedField, sign exact_solution.SignConvention) (errs []float64) {
	var (
		es = sf.Space.Problem.Exact
		e  [NumErrorNorms]float64
	)
	integrate(sf, func(fv fieldValues, x, y, w float64) {
		var (
			du  = es.U(x, y) - fv.U
			gu  = es.GradU(x, y)
			fl  = es.Flux(x, y, sign)
			kap = es.Permeability(x, y)
			dg  = [2]float64{gu[0] - fv.Grad[0], gu[1] - fv.Grad[1]}
			df  = [2]float64{fl[0] - fv.Flux[0], fl[1] - fv.Flux[1]}
			dg2 = dg[0]*dg[0] + dg[1]*dg[1]
		)
		e[0] += w * du * du
		e[1] += w * (df[0]*df[0] + df[1]*df[1])
		e[2] += w * (du*du + dg2)
		e[3] += w * kap * dg2
	})
	return sqrtAll(e)
}

/*
mixedNorms are the norms of the dual approximation:
	[0] L2 of u - u_h
	[1] L2 of sigma - sigma_h
	[2] L2 of div(sigma - sigma_h)
	[3] energy, L2 of K^-1/2 (sigma - sigma_h)
*/
func mixedNorms(sf *SolvedField) (errs []float64) {
	var (
		es = sf.Space.Problem.Exact
		e  [NumErrorNorms]float64
	)
	integrate(sf, func(fv fieldValues, x, y, w float64) {
		var (
			du  = es.U(x, y) - fv.U
			fl  = es.Flux(x, y, exact_solution.SignPositive)
			df  = [2]float64{fl[0] - fv.Flux[0], fl[1] - fv.Flux[1]}
			dd  = es.Source(x, y) - fv.Div
			df2 = df[0]*df[0] + df[1]*df[1]
		)
		e[0] += w * du * du
		e[1] += w * df2
		e[2] += w * dd * dd
		e[3] += w * df2 / es.Permeability(x, y)
	})
	return sqrtAll(e)
}

func sqrtAll(e [NumErrorNorms]float64) (errs []float64) {
	errs = make([]float64, NumErrorNorms)
	for i, v := range e {
		errs[i] = math.Sqrt(v)
	}
	return
}

// ErrorNorms integrates the error norms of the strategy that built the solved field
func ErrorNorms(sf *SolvedField) []float64 {
	return sf.Space.Strategy.errorNorms(sf)
}
