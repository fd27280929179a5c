package Laplace2D

import (
	"fmt"

	"github.com/OliariVictor/FEMcomparison/geometry2D"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/types"
)

var (
	UnitSquareMatID = 1
	UnitSquareBCID  = -1
	// Quadrants Q1..Q4 of the Steklov domain
	SteklovMatIDs = [geometry2D.NumQuadrants]int{1, 2, 3, 4}
	SteklovBCIDs  = [geometry2D.NumQuadrants]int{-1, -5, -6, -8}
)

// ProblemSpec is one experiment instance at a given refinement, it is not modified after construction
type ProblemSpec struct {
	Exact       exact_solution.ExactSolution
	Benchmark   exact_solution.Benchmark
	K, N        int
	Mesh        *geometry2D.TriMesh
	InteriorIDs types.MaterialSet
	BoundaryIDs types.MaterialSet
	BCKinds     map[int]types.BCFLAG
	NDivisions  int
	Dimension   int
	H           float64
	ProblemName string
}

func NewProblemSpec(rc *RunConfig, ndiv int) (ps *ProblemSpec, err error) {
	if rc == nil {
		err = configErr("runConfig", nil, "missing run configuration")
		return
	}
	if err = rc.Validate(); err != nil {
		return
	}
	if ndiv < 0 {
		err = configErr("ndiv", ndiv, "number of divisions must be >= 0")
		return
	}
	ps = &ProblemSpec{
		Benchmark:   rc.Benchmark,
		K:           rc.K,
		N:           rc.N,
		NDivisions:  ndiv,
		Dimension:   Dimension,
		H:           rc.MeshSize(ndiv),
		ProblemName: rc.Benchmark.String(),
		BCKinds:     make(map[int]types.BCFLAG),
	}
	if ps.Exact, err = exact_solution.NewExactSolution(rc.Benchmark, rc.PermQ1, rc.PermQ2); err != nil {
		err = configErr("problem", rc.Benchmark.String(), "%v", err)
		return
	}
	var base *geometry2D.TriMesh
	switch rc.Benchmark {
	case exact_solution.ESteklovNonConst:
		base = geometry2D.BuildOriginCenteredSquare(SteklovMatIDs, SteklovBCIDs)
	default:
		base = geometry2D.BuildUnitSquare(UnitSquareMatID, UnitSquareBCID)
	}
	ps.Mesh = geometry2D.UniformRefine(base, ndiv)
	if err = ps.Mesh.BuildConnectivity(); err != nil {
		err = fmt.Errorf("mesh connectivity: %w", err)
		return
	}
	ps.InteriorIDs = ps.Mesh.InteriorMaterialIDs()
	ps.BoundaryIDs = ps.Mesh.BoundaryIDs()
	for _, id := range ps.BoundaryIDs.Sorted() {
		ps.BCKinds[id] = types.BC_Dirichlet
	}
	err = ps.checkMaterials()
	return
}

func (ps *ProblemSpec) checkMaterials() (err error) {
	if !ps.InteriorIDs.Disjoint(ps.BoundaryIDs) {
		return fmt.Errorf("interior ids %v and boundary ids %v overlap", ps.InteriorIDs.Sorted(), ps.BoundaryIDs.Sorted())
	}
	for id := range ps.BoundaryIDs {
		if _, ok := ps.BCKinds[id]; !ok {
			return fmt.Errorf("boundary id %d has no boundary condition", id)
		}
	}
	return
}

// RefinementFactor is 1/h rounded, used to tag output files
func (ps *ProblemSpec) RefinementFactor() int {
	return int(1/ps.H + 0.5)
}
