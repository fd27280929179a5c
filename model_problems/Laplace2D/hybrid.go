package Laplace2D

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/FEM2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/types"
)

/*
HybridStrategy is the primal hybrid method: a broken P_(k+n) potential per element coupled through normal flux
multipliers in P_k on every edge, see hybridPotentialDegree for the one pairing that is raised. Interior edges carry InterfaceMatID, boundary edges are hybridized as well and impose
the Dirichlet data weakly. Each element is grouped with its edge multipliers; the non constant potential modes are
condensed and the element mean is kept.
*/
type HybridStrategy struct {
	Level int
}

func (HybridStrategy) Mode() Mode { return Hybrid }

func (HybridStrategy) SignConvention() exact_solution.SignConvention { return exact_solution.SignPositive }

func (HybridStrategy) PostProcessFields() (scalars, vectors []string) {
	return []string{"Pressure", "PressureExact"}, []string{"Flux"}
}

func (HybridStrategy) AssembleMaterials(ds *DiscreteSpace) MaterialFilter {
	mf := NewMaterialFilter(ds.Problem.InteriorIDs, ds.Problem.BoundaryIDs)
	if ds.HasInterface {
		mf.Insert(ds.InterfaceID)
	}
	return mf
}

type hybridSpace struct {
	ps       *ProblemSpec
	space    *DiscreteSpace
	maps     []FEM2D.AffineMap
	sms      []*FEM2D.ScaledMonomials
	edgeSign [][3]float64
	nLambda  int // Multiplier functions per edge
	cub      *FEM2D.Cubature
	lq       *FEM2D.LineQuadrature
}

/*
hybridPotentialDegree is k+n unless the P_k moments of the P_(k+n) traces miss a multiplier combination. For n = 1
and odd k, P_(k+1) holds a bubble with vanishing P_k moments on all three edges, and a multiplier orthogonal to every
trace would be left without stiffness, so the potential is raised to P_(k+2).
*/
func hybridPotentialDegree(k, n int) int {
	if n == 1 && k%2 == 1 {
		return k + 2
	}
	return k + n
}

func (s HybridStrategy) Build(ps *ProblemSpec) (ds *DiscreteSpace, err error) {
	switch s.Level {
	case 1:
	case 2:
		err = configErr("hybridLevel", s.Level, "squared hybridization is selectable but not supported by the solver")
		return
	default:
		err = configErr("hybridLevel", s.Level, "hybridization level must be 1 or 2")
		return
	}
	if ps.N < 1 {
		err = configErr("n", ps.N, "Hybrid needs n >= 1")
		return
	}
	var (
		tm  = ps.Mesh
		m   = hybridPotentialDegree(ps.K, ps.N)
		sp  = &hybridSpace{ps: ps, maps: buildMaps(ps), nLambda: ps.K + 1}
		num dofNumbering
	)
	sp.cub = FEM2D.NewCubature(2*m + 4)
	sp.lq = FEM2D.NewLineQuadrature(2*m + 4)
	sp.sms = make([]*FEM2D.ScaledMonomials, tm.NumTris())
	sp.edgeSign = make([][3]float64, tm.NumTris())
	ds = &DiscreteSpace{
		Problem:      ps,
		Strategy:     s,
		Maps:         sp.maps,
		HasInterface: true,
		InterfaceID:  InterfaceMatID,
		system:       sp,
	}
	sp.space = ds
	edgeDofs := make([][]int, len(tm.Edges))
	for k := range tm.Tris {
		sp.sms[k] = FEM2D.NewScaledMonomials(m, tm.Coordinates(k))
		dofs := make([]int, 0, 3*sp.nLambda+1)
		for e := 0; e < 3; e++ {
			ind := tm.TriEdges[k][e]
			if edgeDofs[ind] == nil {
				edgeDofs[ind] = num.block(sp.nLambda)
			}
			dofs = append(dofs, edgeDofs[ind]...)
			sp.edgeSign[k][e] = float64(types.Orientation(tm.LocalEdgeVerts(k, e)))
		}
		// Element mean, numbered after its multipliers
		dofs = append(dofs, num.block(1)[0])
		ds.Groups = append(ds.Groups, ElementGroup{Element: k, Dofs: dofs, NInternal: sp.sms[k].Len() - 1})
	}
	ds.NEquations = num.next
	return
}

func (sp *hybridSpace) lambdaIndex(e, j int) int { return e*sp.nLambda + j }

// potentialIndex of monomial i, the constant is the last retained unknown
func (sp *hybridSpace) potentialIndex(i int) int { return 3*sp.nLambda + i }

/*
localSystem assembles
	(K grad u, grad v) + sum_e sigma_e <lambda_e, v> = (f, v)
	sum_e sigma_e <mu_e, u>                         = sigma_e <mu_e, g>   on boundary edges
with sigma_e = +1 when the outward normal is the global edge normal. The multiplier rows are augmented with
-rho c (c.lambda - F0), c.lambda = F0 being the element conservation row, which leaves the solution unchanged and makes
the multiplier block negative definite.
*/
func (sp *hybridSpace) localSystem(k int, filter MaterialFilter) (K *mat.Dense, F *mat.VecDense) {
	var (
		ps  = sp.ps
		tm  = ps.Mesh
		es  = ps.Exact
		am  = sp.maps[k]
		det = math.Abs(am.Det)
		sm  = sp.sms[k]
		np  = sm.Len()
		nL  = 3 * sp.nLambda
		n   = nL + np
	)
	K = mat.NewDense(n, n, nil)
	F = mat.NewVecDense(n, nil)
	add := func(i, j int, v float64) { K.Set(i, j, K.At(i, j)+v) }
	if filter.Contains(tm.Tris[k].MatID) {
		for q := 0; q < sp.cub.Nq; q++ {
			var (
				x, y      = am.Map(sp.cub.R[q], sp.cub.S[q])
				w         = sp.cub.W[q] * det
				kap       = es.Permeability(x, y)
				f         = es.Source(x, y)
				phi, grad = sm.Eval(x, y)
			)
			for i := 0; i < np; i++ {
				pi := sp.potentialIndex(i)
				F.SetVec(pi, F.AtVec(pi)+w*f*phi[i])
				for j := 0; j < np; j++ {
					add(pi, sp.potentialIndex(j), w*kap*(grad[i][0]*grad[j][0]+grad[i][1]*grad[j][1]))
				}
			}
		}
	}
	for e := 0; e < 3; e++ {
		ind := tm.TriEdges[k][e]
		active, boundary := sp.space.edgeActive(ind, filter)
		if !active {
			continue
		}
		var (
			sigma  = sp.edgeSign[k][e]
			length = tm.Edges[ind].Length(tm)
		)
		for q := 0; q < sp.lq.Nq; q++ {
			var (
				t    = sp.lq.S[q]
				x, y = am.Map(FEM2D.RefEdgePoint(e, t))
				w    = sp.lq.W[q] * length
				sg   = t
				phi  = sm.EvalValues(x, y)
				g    float64
			)
			if sigma < 0 {
				sg = 1 - t
			}
			if boundary {
				g = es.U(x, y)
			}
			for j := 0; j < sp.nLambda; j++ {
				var (
					lj = sp.lambdaIndex(e, j)
					L  = sigma * w * FEM2D.Legendre(j, sg)
				)
				for i := 0; i < np; i++ {
					add(sp.potentialIndex(i), lj, L*phi[i])
					add(lj, sp.potentialIndex(i), L*phi[i])
				}
				if boundary {
					F.SetVec(lj, F.AtVec(lj)+L*g)
				}
			}
		}
	}
	var (
		c   = make([]float64, nL)
		u0  = sp.potentialIndex(0)
		F0  = F.AtVec(u0)
		xc  = sm.Xc
		rho = 1 / es.Permeability(xc[0], xc[1])
	)
	for l := range c {
		c[l] = K.At(u0, l)
	}
	for l := range c {
		F.SetVec(l, F.AtVec(l)-rho*c[l]*F0)
		for m := range c {
			add(l, m, -rho*c[l]*c[m])
		}
	}
	return
}

func (sp *hybridSpace) evaluate(k int, coeffs []float64, r, s float64) (fv fieldValues) {
	var (
		am        = sp.maps[k]
		x, y      = am.Map(r, s)
		phi, grad = sp.sms[k].Eval(x, y)
	)
	for i := range phi {
		c := coeffs[sp.potentialIndex(i)]
		fv.U += c * phi[i]
		fv.Grad[0] += c * grad[i][0]
		fv.Grad[1] += c * grad[i][1]
	}
	kap := sp.ps.Exact.Permeability(x, y)
	fv.Flux = [2]float64{-kap * fv.Grad[0], -kap * fv.Grad[1]}
	return
}

func (s HybridStrategy) errorNorms(sf *SolvedField) []float64 {
	return primalNorms(sf, s.SignConvention())
}

func (HybridStrategy) postProcess(ps *ProblemSpec, fv fieldValues, x, y float64) (scalars []float64, vectors [][2]float64) {
	return []float64{fv.U, ps.Exact.U(x, y)}, [][2]float64{fv.Flux}
}
