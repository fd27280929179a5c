package Laplace2D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/FEM2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/types"
)

/*
MixedStrategy is the dual mixed method. The flux lives in RT_(k+n) with normal traces restricted to P_k on the edges,
the interior bubbles are raised by n, and the potential is P_(k+n) per element, synchronized to the flux interior order.
Bubbles and non constant potential modes are condensed, one constant potential unknown per element is kept.
*/
type MixedStrategy struct{}

func (MixedStrategy) Mode() Mode { return Mixed }

func (MixedStrategy) SignConvention() exact_solution.SignConvention { return exact_solution.SignPositive }

func (MixedStrategy) PostProcessFields() (scalars, vectors []string) {
	return []string{"Pressure", "ExactPressure"}, []string{"Flux", "ExactFlux"}
}

func (MixedStrategy) AssembleMaterials(ds *DiscreteSpace) MaterialFilter {
	return NewMaterialFilter(ds.Problem.InteriorIDs, ds.Problem.BoundaryIDs)
}

type mixedSpace struct {
	ps    *ProblemSpec
	maps  []FEM2D.AffineMap
	hes   []*FEM2D.HDivElement
	sms   []*FEM2D.ScaledMonomials
	nFlux int // Edge flux functions per edge
	cub   *FEM2D.Cubature
	lq    *FEM2D.LineQuadrature
}

func (s MixedStrategy) Build(ps *ProblemSpec) (ds *DiscreteSpace, err error) {
	if ps.N < 0 || ps.K < 0 {
		err = configErr("n", ps.N, "Mixed needs k >= 0 and n >= 0")
		return
	}
	var (
		tm  = ps.Mesh
		m   = ps.K + ps.N
		sp  = &mixedSpace{ps: ps, maps: buildMaps(ps), nFlux: ps.K + 1}
		num dofNumbering
	)
	sp.cub = FEM2D.NewCubature(2*m + 4)
	sp.lq = FEM2D.NewLineQuadrature(2*m + 4)
	sp.hes = make([]*FEM2D.HDivElement, tm.NumTris())
	sp.sms = make([]*FEM2D.ScaledMonomials, tm.NumTris())
	ds = &DiscreteSpace{
		Problem:  ps,
		Strategy: s,
		Maps:     sp.maps,
		system:   sp,
	}
	edgeDofs := make([][]int, len(tm.Edges))
	for k := range tm.Tris {
		var (
			X        = tm.Coordinates(k)
			edgeSign [3]float64
			dofs     = make([]int, 0, 3*sp.nFlux+1)
		)
		for e := 0; e < 3; e++ {
			ind := tm.TriEdges[k][e]
			if edgeDofs[ind] == nil {
				edgeDofs[ind] = num.block(sp.nFlux)
			}
			dofs = append(dofs, edgeDofs[ind]...)
			edgeSign[e] = float64(types.Orientation(tm.LocalEdgeVerts(k, e)))
		}
		if sp.hes[k], err = FEM2D.NewHDivElement(m, X, edgeSign); err != nil {
			err = fmt.Errorf("flux space of element %d: %w", k, err)
			return
		}
		sp.sms[k] = FEM2D.NewScaledMonomials(m, X)
		// One constant potential unknown per element
		dofs = append(dofs, num.block(1)[0])
		ds.Groups = append(ds.Groups, ElementGroup{
			Element:   k,
			Dofs:      dofs,
			NInternal: sp.hes[k].NInterior + sp.sms[k].Len() - 1,
		})
	}
	ds.NEquations = num.next
	return
}

/*
localIndices lists, for element k, the local unknown of every used flux function (edge functions of order <= k, then
the interior bubbles) with its index in the element dual basis, and the local unknown of every potential mode.
*/
func (sp *mixedSpace) localIndices(k int) (fluxLocal, fluxDual, potLocal []int) {
	var (
		he = sp.hes[k]
		nR = 3*sp.nFlux + 1
	)
	for e := 0; e < 3; e++ {
		for j := 0; j < sp.nFlux; j++ {
			fluxLocal = append(fluxLocal, e*sp.nFlux+j)
			fluxDual = append(fluxDual, he.EdgeDof(e, j))
		}
	}
	for i := 0; i < he.NInterior; i++ {
		fluxLocal = append(fluxLocal, nR+i)
		fluxDual = append(fluxDual, he.InteriorDof(i))
	}
	potLocal = append(potLocal, 3*sp.nFlux)
	for a := 1; a < sp.sms[k].Len(); a++ {
		potLocal = append(potLocal, nR+he.NInterior+a-1)
	}
	return
}

/*
localSystem assembles
	(K^-1 sigma, tau) - (u, div tau) = -<g, tau.n>
	-(div sigma, v)                  = -(f, v)
*/
func (sp *mixedSpace) localSystem(k int, filter MaterialFilter) (K *mat.Dense, F *mat.VecDense) {
	var (
		ps                      = sp.ps
		tm                      = ps.Mesh
		es                      = ps.Exact
		am                      = sp.maps[k]
		det                     = math.Abs(am.Det)
		he                      = sp.hes[k]
		sm                      = sp.sms[k]
		fluxLocal, fluxDual, pl = sp.localIndices(k)
		n                       = len(fluxLocal) + len(pl)
	)
	K = mat.NewDense(n, n, nil)
	F = mat.NewVecDense(n, nil)
	add := func(i, j int, v float64) { K.Set(i, j, K.At(i, j)+v) }
	if filter.Contains(tm.Tris[k].MatID) {
		for q := 0; q < sp.cub.Nq; q++ {
			var (
				x, y      = am.Map(sp.cub.R[q], sp.cub.S[q])
				w         = sp.cub.W[q] * det
				kinv      = 1 / es.Permeability(x, y)
				f         = es.Source(x, y)
				vals, div = he.Eval(x, y)
				phi       = sm.EvalValues(x, y)
			)
			for a, la := range pl {
				F.SetVec(la, F.AtVec(la)-w*f*phi[a])
			}
			for i, li := range fluxLocal {
				vi := vals[fluxDual[i]]
				for j, lj := range fluxLocal {
					vj := vals[fluxDual[j]]
					add(li, lj, w*kinv*(vi[0]*vj[0]+vi[1]*vj[1]))
				}
				for a, la := range pl {
					b := -w * phi[a] * div[fluxDual[i]]
					add(li, la, b)
					add(la, li, b)
				}
			}
		}
	}
	for e := 0; e < 3; e++ {
		ind := tm.TriEdges[k][e]
		edge := &tm.Edges[ind]
		if !edge.IsBoundary() || !filter.Contains(edge.BCID) || ps.BCKinds[edge.BCID] != types.BC_Dirichlet {
			continue
		}
		var (
			length = edge.Length(tm)
			nOut   = [2]float64{he.EdgeSign[e] * he.Normals[e][0], he.EdgeSign[e] * he.Normals[e][1]}
		)
		for q := 0; q < sp.lq.Nq; q++ {
			var (
				x, y    = am.Map(FEM2D.RefEdgePoint(e, sp.lq.S[q]))
				w       = sp.lq.W[q] * length
				g       = es.U(x, y)
				vals, _ = he.Eval(x, y)
			)
			for i, li := range fluxLocal {
				v := vals[fluxDual[i]]
				F.SetVec(li, F.AtVec(li)-w*g*(v[0]*nOut[0]+v[1]*nOut[1]))
			}
		}
	}
	return
}

func (sp *mixedSpace) evaluate(k int, coeffs []float64, r, s float64) (fv fieldValues) {
	var (
		am                      = sp.maps[k]
		x, y                    = am.Map(r, s)
		vals, div               = sp.hes[k].Eval(x, y)
		phi                     = sp.sms[k].EvalValues(x, y)
		fluxLocal, fluxDual, pl = sp.localIndices(k)
	)
	for a, la := range pl {
		fv.U += coeffs[la] * phi[a]
	}
	for i, li := range fluxLocal {
		c := coeffs[li]
		v := vals[fluxDual[i]]
		fv.Flux[0] += c * v[0]
		fv.Flux[1] += c * v[1]
		fv.Div += c * div[fluxDual[i]]
	}
	return
}

func (MixedStrategy) errorNorms(sf *SolvedField) []float64 {
	return mixedNorms(sf)
}

func (MixedStrategy) postProcess(ps *ProblemSpec, fv fieldValues, x, y float64) (scalars []float64, vectors [][2]float64) {
	return []float64{fv.U, ps.Exact.U(x, y)}, [][2]float64{fv.Flux, ps.Exact.Flux(x, y, exact_solution.SignPositive)}
}
