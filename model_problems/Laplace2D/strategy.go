package Laplace2D

import (
	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/FEM2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/types"
)

/*
SpaceStrategy builds the discrete spaces of one discretization. The set of implementations is closed: H1Strategy,
HybridStrategy and MixedStrategy.
*/
type SpaceStrategy interface {
	Mode() Mode
	Build(ps *ProblemSpec) (*DiscreteSpace, error)
	// AssembleMaterials lists the material and boundary ids that take part in the linear system
	AssembleMaterials(ds *DiscreteSpace) MaterialFilter
	PostProcessFields() (scalars, vectors []string)
	SignConvention() exact_solution.SignConvention
	// errorNorms integrates the NumErrorNorms error norms of a solved field
	errorNorms(sf *SolvedField) []float64
	// postProcess evaluates the fields named by PostProcessFields
	postProcess(ps *ProblemSpec, fv fieldValues, x, y float64) (scalars []float64, vectors [][2]float64)
}

// NewSpaceStrategy selects the strategy of a mode, the hybridization level only applies to Hybrid
func NewSpaceStrategy(mode Mode, hybridLevel int) (ss SpaceStrategy, err error) {
	switch mode {
	case H1:
		ss = H1Strategy{}
	case Hybrid:
		if hybridLevel != 1 && hybridLevel != 2 {
			err = configErr("hybridLevel", hybridLevel, "hybridization level must be 1 or 2")
			return
		}
		ss = HybridStrategy{Level: hybridLevel}
	case Mixed:
		ss = MixedStrategy{}
	default:
		err = configErr("approx", int(mode), "unsupported approximation")
	}
	return
}

// MaterialFilter is the set of ids whose contributions are assembled
type MaterialFilter struct {
	types.MaterialSet
}

func NewMaterialFilter(sets ...types.MaterialSet) MaterialFilter {
	return MaterialFilter{MaterialSet: types.NewMaterialSet().Union(sets...)}
}

/*
ElementGroup is one condensation unit: an element with its edge unknowns. Dofs lists the global equation of every
retained local unknown, the NInternal local unknowns that follow them are condensed.
*/
type ElementGroup struct {
	Element   int
	Dofs      []int
	NInternal int
}

func (g *ElementGroup) NRetained() int { return len(g.Dofs) }

func (g *ElementGroup) NLocal() int { return len(g.Dofs) + g.NInternal }

type DiscreteSpace struct {
	Problem      *ProblemSpec
	Strategy     SpaceStrategy
	Groups       []ElementGroup
	NEquations   int
	HasInterface bool
	InterfaceID  int
	Maps         []FEM2D.AffineMap
	system       elementSystem
}

// fieldValues holds the discrete fields at a point, Flux follows the sign convention of the strategy
type fieldValues struct {
	U    float64
	Grad [2]float64
	Flux [2]float64
	Div  float64
}

type elementSystem interface {
	// localSystem returns the element matrix and load, retained unknowns first
	localSystem(k int, filter MaterialFilter) (K *mat.Dense, F *mat.VecDense)
	// evaluate the discrete fields at reference point (r,s) of element k from the full local coefficients
	evaluate(k int, coeffs []float64, r, s float64) fieldValues
}

// dofNumbering hands out global equations in order of first touch
type dofNumbering struct {
	next int
}

func (dn *dofNumbering) block(n int) (dofs []int) {
	dofs = make([]int, n)
	for i := range dofs {
		dofs[i] = dn.next
		dn.next++
	}
	return
}

func buildMaps(ps *ProblemSpec) (maps []FEM2D.AffineMap) {
	maps = make([]FEM2D.AffineMap, ps.Mesh.NumTris())
	for k := range maps {
		maps[k] = FEM2D.NewAffineMap(ps.Mesh.Coordinates(k))
	}
	return
}

// edgeActive reports whether the edge terms of global edge ind are assembled
func (ds *DiscreteSpace) edgeActive(ind int, filter MaterialFilter) (active, boundary bool) {
	edge := &ds.Problem.Mesh.Edges[ind]
	if edge.IsBoundary() {
		return filter.Contains(edge.BCID) && ds.Problem.BCKinds[edge.BCID] == types.BC_Dirichlet, true
	}
	return ds.HasInterface && filter.Contains(ds.InterfaceID), false
}
