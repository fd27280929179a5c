package FEM2D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

/*
HDivElement is the Raviart Thomas space RT_M = (P_M)^2 + x P_M(homogeneous) built on one physical triangle, in the
dual basis of its degrees of freedom:
	Edge moments:     1/|e| integral over e of (tau . n_e) L_j(s), j = 0..M
	Interior moments: 1/|T| integral over T of tau . (q,0) and tau . (0,q), q in P_(M-1)
n_e is the global unit normal of the edge and s its global parameter, both following the low to high vertex orientation,
so an edge function has the same normal trace seen from either neighbor.
*/
type HDivElement struct {
	M         int
	X         [3][2]float64
	EdgeSign  [3]float64    // +1 when local edge e runs along the global orientation
	Normals   [3][2]float64 // Global unit normal per local edge
	Lengths   [3]float64
	Area      float64
	NDof      int
	NInterior int
	Sm        *ScaledMonomials
	Coeffs    *mat.Dense // Column i holds the raw basis coefficients of dual function i
	nRaw      int
}

func NewHDivElement(M int, X [3][2]float64, edgeSign [3]float64) (he *HDivElement, err error) {
	if M < 0 {
		err = fmt.Errorf("Raviart Thomas order must be >= 0, have %d", M)
		return
	}
	he = &HDivElement{
		M:        M,
		X:        X,
		EdgeSign: edgeSign,
		Sm:       NewScaledMonomials(M, X),
		Area:     NewAffineMap(X).Area(),
	}
	he.NInterior = 2 * NumPolynomials(M-1)
	he.NDof = 3*(M+1) + he.NInterior
	he.nRaw = 2*NumPolynomials(M) + (M + 1)
	if he.nRaw != he.NDof {
		panic(fmt.Errorf("Raviart Thomas dimension mismatch, %d functions and %d functionals", he.nRaw, he.NDof))
	}
	for e := 0; e < 3; e++ {
		p0, p1 := X[e], X[(e+1)%3]
		tx, ty := p1[0]-p0[0], p1[1]-p0[1]
		he.Lengths[e] = math.Hypot(tx, ty)
		// Outward normal of a counter clockwise triangle is the local tangent rotated clockwise
		he.Normals[e] = [2]float64{edgeSign[e] * ty / he.Lengths[e], -edgeSign[e] * tx / he.Lengths[e]}
	}
	D := he.functionalMatrix()
	he.Coeffs = mat.NewDense(he.NDof, he.NDof, nil)
	if err = he.Coeffs.Inverse(D); err != nil {
		err = fmt.Errorf("singular Raviart Thomas functional matrix: %w", err)
		return
	}
	return
}

func (he *HDivElement) EdgeDof(e, j int) int { return e*(he.M+1) + j }

func (he *HDivElement) InteriorDof(i int) int { return 3*(he.M+1) + i }

// EdgeParam maps the local parameter t along local edge e onto the global parameter s
func (he *HDivElement) EdgeParam(e int, t float64) float64 {
	if he.EdgeSign[e] > 0 {
		return t
	}
	return 1 - t
}

// functionalMatrix holds D[dof][l] = dof(raw function l)
func (he *HDivElement) functionalMatrix() (D *mat.Dense) {
	var (
		lq  = NewLineQuadrature(2 * he.M)
		cub = NewCubature(2 * he.M)
		am  = NewAffineMap(he.X)
		smI = he.interiorTests()
	)
	D = mat.NewDense(he.NDof, he.nRaw, nil)
	for e := 0; e < 3; e++ {
		for q := 0; q < lq.Nq; q++ {
			r, s := RefEdgePoint(e, lq.S[q])
			x, y := am.Map(r, s)
			vals, _ := he.rawEval(x, y)
			sg := he.EdgeParam(e, lq.S[q])
			n := he.Normals[e]
			for j := 0; j <= he.M; j++ {
				lj := Legendre(j, sg) * lq.W[q]
				row := he.EdgeDof(e, j)
				for l, v := range vals {
					D.Set(row, l, D.At(row, l)+lj*(v[0]*n[0]+v[1]*n[1]))
				}
			}
		}
	}
	nq := he.NInterior / 2
	for q := 0; q < cub.Nq; q++ {
		x, y := am.Map(cub.R[q], cub.S[q])
		vals, _ := he.rawEval(x, y)
		// Weights sum to 1/2 on the reference triangle, scale to a unit average
		w := 2 * cub.W[q]
		var tests []float64
		if smI != nil {
			tests = smI.EvalValues(x, y)
		}
		for i := 0; i < nq; i++ {
			rowX, rowY := he.InteriorDof(i), he.InteriorDof(nq+i)
			for l, v := range vals {
				D.Set(rowX, l, D.At(rowX, l)+w*tests[i]*v[0])
				D.Set(rowY, l, D.At(rowY, l)+w*tests[i]*v[1])
			}
		}
	}
	return
}

func (he *HDivElement) interiorTests() *ScaledMonomials {
	if he.M == 0 {
		return nil
	}
	return NewScaledMonomials(he.M-1, he.X)
}

// rawEval returns the vector values and divergences of the raw basis
func (he *HDivElement) rawEval(x, y float64) (vals [][2]float64, div []float64) {
	var (
		sm        = he.Sm
		X, Y      = sm.Scaled(x, y)
		phi, grad = sm.Eval(x, y)
	)
	vals = make([][2]float64, 0, he.nRaw)
	div = make([]float64, 0, he.nRaw)
	for i := range phi {
		vals = append(vals, [2]float64{phi[i], 0}, [2]float64{0, phi[i]})
		div = append(div, grad[i][0], grad[i][1])
	}
	for i := range phi {
		if sm.Degree(i) != he.M {
			continue
		}
		vals = append(vals, [2]float64{X * phi[i], Y * phi[i]})
		// Euler's theorem for a homogeneous polynomial of degree M
		div = append(div, float64(he.M+2)*phi[i]/sm.H)
	}
	return
}

// Eval returns the values and divergences of all the dual basis functions at (x,y)
func (he *HDivElement) Eval(x, y float64) (vals [][2]float64, div []float64) {
	rv, rd := he.rawEval(x, y)
	vals = make([][2]float64, he.NDof)
	div = make([]float64, he.NDof)
	for i := 0; i < he.NDof; i++ {
		for l := 0; l < he.nRaw; l++ {
			c := he.Coeffs.At(l, i)
			if c == 0 {
				continue
			}
			vals[i][0] += c * rv[l][0]
			vals[i][1] += c * rv[l][1]
			div[i] += c * rd[l]
		}
	}
	return
}
