package Laplace2D

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/FEM2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/types"
	"github.com/OliariVictor/FEMcomparison/utils"
)

/*
H1Strategy is the continuous Galerkin method with Lagrange Pk elements. Vertex and edge nodes are global, element
interior nodes are condensed and Dirichlet data is imposed by penalty on the boundary edges.
*/
type H1Strategy struct{}

func (H1Strategy) Mode() Mode { return H1 }

func (H1Strategy) SignConvention() exact_solution.SignConvention { return exact_solution.SignNegative }

func (H1Strategy) PostProcessFields() (scalars, vectors []string) {
	return []string{"Solution", "ExactSolution"}, []string{"Derivative"}
}

func (H1Strategy) AssembleMaterials(ds *DiscreteSpace) MaterialFilter {
	return NewMaterialFilter(ds.Problem.InteriorIDs, ds.Problem.BoundaryIDs)
}

type h1Space struct {
	ps    *ProblemSpec
	el    *FEM2D.LagrangeElement
	maps  []FEM2D.AffineMap
	cub   *FEM2D.Cubature
	lq    *FEM2D.LineQuadrature
	phiQ  [][]float64
	dphiQ [][][2]float64
	phiE  [3][][]float64 // Basis along each local edge at the line quadrature points
}

func (s H1Strategy) Build(ps *ProblemSpec) (ds *DiscreteSpace, err error) {
	if ps.K < 1 {
		err = configErr("k", ps.K, "H1 needs k >= 1")
		return
	}
	var (
		tm  = ps.Mesh
		el  = FEM2D.NewLagrangeElement(ps.K)
		sp  = &h1Space{ps: ps, el: el, maps: buildMaps(ps)}
		num dofNumbering
	)
	sp.cub = FEM2D.NewCubature(2*ps.K + 4)
	sp.lq = FEM2D.NewLineQuadrature(2*ps.K + 4)
	for q := 0; q < sp.cub.Nq; q++ {
		phi, dphi := el.Eval(sp.cub.R[q], sp.cub.S[q])
		sp.phiQ = append(sp.phiQ, phi)
		sp.dphiQ = append(sp.dphiQ, dphi)
	}
	for e := 0; e < 3; e++ {
		for q := 0; q < sp.lq.Nq; q++ {
			phi, _ := el.Eval(FEM2D.RefEdgePoint(e, sp.lq.S[q]))
			sp.phiE[e] = append(sp.phiE[e], phi)
		}
	}
	ds = &DiscreteSpace{
		Problem:  ps,
		Strategy: s,
		Maps:     sp.maps,
		system:   sp,
	}
	var (
		vertexDofs = make(map[int]int)
		edgeDofs   = make([][]int, len(tm.Edges))
	)
	for k, tri := range tm.Tris {
		dofs := make([]int, 0, el.Np-el.NInterior)
		for _, v := range tri.Verts {
			d, ok := vertexDofs[v]
			if !ok {
				d = num.block(1)[0]
				vertexDofs[v] = d
			}
			dofs = append(dofs, d)
		}
		for e := 0; e < 3; e++ {
			ind := tm.TriEdges[k][e]
			if edgeDofs[ind] == nil {
				edgeDofs[ind] = num.block(el.NEdge)
			}
			orient := types.Orientation(tm.LocalEdgeVerts(k, e))
			for t := 0; t < el.NEdge; t++ {
				j := t
				if orient < 0 {
					j = el.NEdge - 1 - t
				}
				dofs = append(dofs, edgeDofs[ind][j])
			}
		}
		ds.Groups = append(ds.Groups, ElementGroup{Element: k, Dofs: dofs, NInternal: el.NInterior})
	}
	ds.NEquations = num.next
	return
}

func (sp *h1Space) localSystem(k int, filter MaterialFilter) (K *mat.Dense, F *mat.VecDense) {
	var (
		ps  = sp.ps
		el  = sp.el
		am  = sp.maps[k]
		det = math.Abs(am.Det)
		tm  = ps.Mesh
		es  = ps.Exact
		gx  = make([][2]float64, el.Np)
	)
	K = mat.NewDense(el.Np, el.Np, nil)
	F = mat.NewVecDense(el.Np, nil)
	if filter.Contains(tm.Tris[k].MatID) {
		for q := 0; q < sp.cub.Nq; q++ {
			var (
				x, y = am.Map(sp.cub.R[q], sp.cub.S[q])
				w    = sp.cub.W[q] * det
				kap  = es.Permeability(x, y)
				f    = es.Source(x, y)
			)
			for i := range gx {
				gx[i][0], gx[i][1] = am.GradToPhysical(sp.dphiQ[q][i][0], sp.dphiQ[q][i][1])
			}
			for i := 0; i < el.Np; i++ {
				F.SetVec(i, F.AtVec(i)+w*f*sp.phiQ[q][i])
				for j := 0; j < el.Np; j++ {
					K.Set(i, j, K.At(i, j)+w*kap*(gx[i][0]*gx[j][0]+gx[i][1]*gx[j][1]))
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
		length := edge.Length(tm)
		for q := 0; q < sp.lq.Nq; q++ {
			var (
				x, y = am.Map(FEM2D.RefEdgePoint(e, sp.lq.S[q]))
				w    = utils.BigNumber * sp.lq.W[q] * length
				g    = es.U(x, y)
				phi  = sp.phiE[e][q]
			)
			for i := 0; i < el.Np; i++ {
				F.SetVec(i, F.AtVec(i)+w*g*phi[i])
				for j := 0; j < el.Np; j++ {
					K.Set(i, j, K.At(i, j)+w*phi[i]*phi[j])
				}
			}
		}
	}
	return
}

func (sp *h1Space) evaluate(k int, coeffs []float64, r, s float64) (fv fieldValues) {
	var (
		am        = sp.maps[k]
		phi, dphi = sp.el.Eval(r, s)
		dr, ds    float64
	)
	for i, c := range coeffs {
		fv.U += c * phi[i]
		dr += c * dphi[i][0]
		ds += c * dphi[i][1]
	}
	fv.Grad[0], fv.Grad[1] = am.GradToPhysical(dr, ds)
	x, y := am.Map(r, s)
	kap := sp.ps.Exact.Permeability(x, y)
	// Sign convention -1: the flux compared is K grad u
	fv.Flux = [2]float64{kap * fv.Grad[0], kap * fv.Grad[1]}
	return
}

func (s H1Strategy) errorNorms(sf *SolvedField) []float64 {
	return primalNorms(sf, s.SignConvention())
}

func (H1Strategy) postProcess(ps *ProblemSpec, fv fieldValues, x, y float64) (scalars []float64, vectors [][2]float64) {
	return []float64{fv.U, ps.Exact.U(x, y)}, [][2]float64{fv.Grad}
}
