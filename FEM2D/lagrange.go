package FEM2D

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

/*
LagrangeElement is the continuous Pk nodal element on the reference triangle. The nodes are equispaced and ordered as
the three vertices, then the P-1 nodes of each local edge e running from vertex e to vertex e+1, then the interior nodes.
*/
type LagrangeElement struct {
	P, Np     int
	R, S      []float64
	Exps      [][2]int
	Coeffs    *mat.Dense // Column j holds the monomial coefficients of nodal function j
	NEdge     int        // Nodes per edge, excluding vertices
	NInterior int
}

func NewLagrangeElement(P int) (el *LagrangeElement) {
	if P < 1 {
		panic(fmt.Errorf("Lagrange order must be >= 1, have %d", P))
	}
	el = &LagrangeElement{
		P:     P,
		Np:    NumPolynomials(P),
		Exps:  MonomialExponents(P),
		NEdge: P - 1,
	}
	el.NInterior = el.Np - 3 - 3*el.NEdge
	el.R = []float64{0, 1, 0}
	el.S = []float64{0, 0, 1}
	for e := 0; e < 3; e++ {
		for t := 1; t < P; t++ {
			r, s := RefEdgePoint(e, float64(t)/float64(P))
			el.R = append(el.R, r)
			el.S = append(el.S, s)
		}
	}
	for j := 1; j < P; j++ {
		for i := 1; i+j < P; i++ {
			el.R = append(el.R, float64(i)/float64(P))
			el.S = append(el.S, float64(j)/float64(P))
		}
	}
	V := mat.NewDense(el.Np, el.Np, nil)
	for i := 0; i < el.Np; i++ {
		for j, e := range el.Exps {
			v, _, _ := monomial(el.R[i], el.S[i], e[0], e[1])
			V.Set(i, j, v)
		}
	}
	el.Coeffs = mat.NewDense(el.Np, el.Np, nil)
	if err := el.Coeffs.Inverse(V); err != nil {
		panic(fmt.Errorf("singular Lagrange Vandermonde matrix at order %d: %w", P, err))
	}
	return
}

// EdgeNode returns the local node index of the t-th interior node (t = 0..P-2) of local edge e
func (el *LagrangeElement) EdgeNode(e, t int) int {
	return 3 + e*el.NEdge + t
}

func (el *LagrangeElement) InteriorNode(i int) int {
	return 3 + 3*el.NEdge + i
}

// Eval returns the nodal function values and reference gradients at (r,s)
func (el *LagrangeElement) Eval(r, s float64) (phi []float64, dphi [][2]float64) {
	var (
		mv = make([]float64, el.Np)
		mr = make([]float64, el.Np)
		ms = make([]float64, el.Np)
	)
	for j, e := range el.Exps {
		mv[j], mr[j], ms[j] = monomial(r, s, e[0], e[1])
	}
	phi = make([]float64, el.Np)
	dphi = make([][2]float64, el.Np)
	for i := 0; i < el.Np; i++ {
		for j := 0; j < el.Np; j++ {
			c := el.Coeffs.At(j, i)
			phi[i] += c * mv[j]
			dphi[i][0] += c * mr[j]
			dphi[i][1] += c * ms[j]
		}
	}
	return
}
