package Laplace2D

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/OliariVictor/FEMcomparison/utils"
)

// SolveStage assembles a discrete space restricted to a material filter and solves it with a skyline LDLt
type SolveStage struct {
	Threads int // Element assembly workers, 0 uses GOMAXPROCS
	Logger  *zap.Logger
}

// LinearSystem is the condensed global system, ready for factorization
type LinearSystem struct {
	Space     *DiscreteSpace
	Filter    MaterialFilter
	A         utils.DOK
	F         []float64
	condensed []condensedGroup
}

// SolvedField is the global solution with the full local coefficients of every element group
type SolvedField struct {
	Space      *DiscreteSpace
	Filter     MaterialFilter
	Solution   []float64
	NEquations int
	Coeffs     [][]float64
}

func (ss *SolveStage) logger() *zap.Logger {
	if ss.Logger == nil {
		return zap.NewNop()
	}
	return ss.Logger
}

/*
Assemble computes and condenses the element systems concurrently over partitions of the element groups, then
scatters them serially into the global matrix.
*/
func (ss *SolveStage) Assemble(ds *DiscreteSpace, filter MaterialFilter) (ls *LinearSystem, err error) {
	var (
		ng        = len(ds.Groups)
		condensed = make([]condensedGroup, ng)
		pm        = utils.NewPartitionMap(ss.Threads, ng)
		start     = time.Now()
	)
	if ds.NEquations == 0 {
		err = &SolverError{Stage: "assembly", Equation: -1, Err: errors.New("discrete space has no equations")}
		return
	}
	err = pm.ForEachBucket(func(bn, kMin, kMax int) error {
		for g := kMin; g < kMax; g++ {
			group := &ds.Groups[g]
			K, F := ds.system.localSystem(group.Element, filter)
			cg, cerr := condense(K, F, group.NRetained())
			if cerr != nil {
				return &SolverError{
					Stage:    "condensation",
					Equation: group.Dofs[0],
					Err:      fmt.Errorf("element %d: %w", group.Element, cerr),
				}
			}
			condensed[g] = cg
		}
		return nil
	})
	if err != nil {
		return
	}
	ls = &LinearSystem{
		Space:     ds,
		Filter:    filter,
		A:         utils.NewDOK(ds.NEquations, ds.NEquations),
		F:         make([]float64, ds.NEquations),
		condensed: condensed,
	}
	for g := range ds.Groups {
		dofs := ds.Groups[g].Dofs
		if err = ls.A.AddBlock(dofs, condensed[g].Kc); err != nil {
			err = &SolverError{Stage: "assembly", Equation: dofs[0], Err: err}
			return
		}
		for i, d := range dofs {
			ls.F[d] += condensed[g].Fc.AtVec(i)
		}
	}
	ss.logger().Debug("assembled",
		zap.Int("groups", ng),
		zap.Ints("partitions", pm.BucketDimensions()),
		zap.Int("equations", ds.NEquations),
		zap.Int("nonzeros", ls.A.NNZ()),
		zap.Duration("elapsed", time.Since(start)))
	return
}

// FactorizeAndSolve runs the LDLt factorization and recovers the condensed unknowns
func (ls *LinearSystem) FactorizeAndSolve() (sf *SolvedField, err error) {
	sk, err := utils.NewSkylineFromDOK(ls.A)
	if err != nil {
		err = &SolverError{Stage: "profile", Equation: -1, Err: err}
		return
	}
	if err = sk.FactorLDLt(); err != nil {
		var zp *utils.ZeroPivotError
		eq := -1
		if errors.As(err, &zp) {
			eq = zp.Equation
		}
		err = &SolverError{Stage: "factorization", Equation: eq, Err: err}
		return
	}
	sf = &SolvedField{
		Space:      ls.Space,
		Filter:     ls.Filter,
		NEquations: sk.N,
		Coeffs:     make([][]float64, len(ls.Space.Groups)),
	}
	if sf.Solution, err = sk.Solve(ls.F); err != nil {
		err = &SolverError{Stage: "substitution", Equation: -1, Err: err}
		return
	}
	if utils.IsNonFinite(sf.Solution) {
		err = &SolverError{Stage: "substitution", Equation: -1, Err: errors.New("solution is not finite")}
		return
	}
	for g := range ls.Space.Groups {
		var (
			dofs = ls.Space.Groups[g].Dofs
			ur   = make([]float64, len(dofs))
		)
		for i, d := range dofs {
			ur[i] = sf.Solution[d]
		}
		sf.Coeffs[g] = ls.condensed[g].expand(ur)
	}
	return
}

// Solve is Assemble followed by FactorizeAndSolve, a single blocking call
func (ss *SolveStage) Solve(ds *DiscreteSpace, filter MaterialFilter) (sf *SolvedField, err error) {
	var (
		ls    *LinearSystem
		start = time.Now()
	)
	if ls, err = ss.Assemble(ds, filter); err != nil {
		return
	}
	if sf, err = ls.FactorizeAndSolve(); err != nil {
		return
	}
	ss.logger().Info("solved",
		zap.String("mode", ds.Strategy.Mode().String()),
		zap.Int("equations", sf.NEquations),
		zap.Duration("elapsed", time.Since(start)))
	ss.logger().Debug("memory", zap.String("usage", utils.GetMemUsage()))
	return
}
