package Laplace2D

import (
	"math"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
	"github.com/OliariVictor/FEMcomparison/utils"
)

type Mode uint8

const (
	H1 Mode = iota
	Hybrid
	Mixed
)

var ModeNames = map[string]Mode{
	"H1":     H1,
	"Hybrid": Hybrid,
	"Mixed":  Mixed,
}

var ModePrintNames = []string{"H1", "Hybrid", "Mixed"}

func (m Mode) String() string {
	if int(m) < len(ModePrintNames) {
		return ModePrintNames[m]
	}
	return "Unknown"
}

func ParseMode(label string) (m Mode, err error) {
	var ok bool
	if m, ok = ModeNames[label]; !ok {
		err = configErr("approx", label, "unknown approximation, use one of H1, Hybrid, Mixed")
	}
	return
}

func ParseBenchmark(label string) (b exact_solution.Benchmark, err error) {
	var ok bool
	if b, ok = exact_solution.ParseBenchmark(label); !ok {
		err = configErr("problem", label, "unknown problem, use one of ESinSin, EArcTan, ESteklovNonConst")
	}
	return
}

const (
	NumErrorNorms = 4
	// NumRatedNorms is the number of leading norms that get a convergence order, the fourth norm is never rated
	NumRatedNorms           = 3
	DefaultBaseMeshSize     = 0.5
	DefaultExp              = 2
	DefaultRefinementLevels = 3
	DefaultPermQ1           = 5.
	DefaultPermQ2           = 1.
	InterfaceMatID          = -10
	Dimension               = 2
)

// ErrorHistory holds the norms and mesh size of the previous refinement step, -1 when there is none
type ErrorHistory struct {
	PrevErrors []float64
	PrevH      float64
}

func NewErrorHistory() ErrorHistory {
	return ErrorHistory{PrevErrors: utils.ConstArray(NumErrorNorms, -1), PrevH: -1}
}

func (eh *ErrorHistory) HasPrior() bool {
	return len(eh.PrevErrors) > 0 && eh.PrevErrors[0] != -1
}

/*
RunConfig carries the parameters of one refinement sweep. The History is mutated once per step and must not be shared
between sweeps.
*/
type RunConfig struct {
	Mode             Mode
	Benchmark        exact_solution.Benchmark
	K, N             int
	HybridLevel      int
	Exp              int
	RefinementLevels int
	BaseMeshSize     float64
	PermQ1, PermQ2   float64
	Threads          int
	History          ErrorHistory
}

// NewRunConfig validates the parameters, the Steklov benchmark doubles the base mesh size of its [-1,1]^2 domain
func NewRunConfig(mode Mode, bench exact_solution.Benchmark, k, n int) (rc *RunConfig, err error) {
	rc = &RunConfig{
		Mode:             mode,
		Benchmark:        bench,
		K:                k,
		N:                n,
		HybridLevel:      1,
		Exp:              DefaultExp,
		RefinementLevels: DefaultRefinementLevels,
		BaseMeshSize:     DefaultBaseMeshSize,
		PermQ1:           DefaultPermQ1,
		PermQ2:           DefaultPermQ2,
		History:          NewErrorHistory(),
	}
	if bench == exact_solution.ESteklovNonConst {
		rc.BaseMeshSize *= 2
	}
	if err = rc.Validate(); err != nil {
		rc = nil
	}
	return
}

/*
ParseRunParameters builds a RunConfig from the names given on the command line or an input file. Missing orders are
passed as nil.
*/
func ParseRunParameters(problem, approx string, k, n *int) (rc *RunConfig, err error) {
	var (
		mode  Mode
		bench exact_solution.Benchmark
	)
	if bench, err = ParseBenchmark(problem); err != nil {
		return
	}
	if mode, err = ParseMode(approx); err != nil {
		return
	}
	if k == nil {
		err = configErr("k", nil, "polynomial order k is required")
		return
	}
	nn := 0
	if n != nil {
		nn = *n
	} else if mode != H1 {
		err = configErr("n", nil, "order n is required for the %s approximation", mode)
		return
	}
	return NewRunConfig(mode, bench, *k, nn)
}

func (rc *RunConfig) Validate() (err error) {
	switch rc.Mode {
	case H1:
		if rc.K < 1 {
			return configErr("k", rc.K, "H1 needs k >= 1")
		}
	case Hybrid:
		if rc.N < 1 {
			return configErr("n", rc.N, "Hybrid needs n >= 1")
		}
		if rc.HybridLevel != 1 && rc.HybridLevel != 2 {
			return configErr("hybridLevel", rc.HybridLevel, "hybridization level must be 1 or 2")
		}
	case Mixed:
		if rc.N < 0 {
			return configErr("n", rc.N, "Mixed needs n >= 0")
		}
	default:
		return configErr("approx", int(rc.Mode), "unsupported approximation")
	}
	if rc.K < 0 {
		return configErr("k", rc.K, "k must be >= 0")
	}
	switch rc.Benchmark {
	case exact_solution.ESinSin:
	case exact_solution.EArcTan:
		if rc.N < 1 {
			return configErr("n", rc.N, "EArcTan needs n >= 1")
		}
	case exact_solution.ESteklovNonConst:
		if rc.N < 0 {
			return configErr("n", rc.N, "ESteklovNonConst needs n >= 0")
		}
	default:
		return configErr("problem", int(rc.Benchmark), "unsupported benchmark")
	}
	if rc.Exp < 0 {
		return configErr("exp", rc.Exp, "initial divisions must be >= 0")
	}
	if rc.RefinementLevels < 1 {
		return configErr("refinementLevels", rc.RefinementLevels, "at least one refinement level is needed")
	}
	if rc.BaseMeshSize <= 0 {
		return configErr("baseMeshSize", rc.BaseMeshSize, "must be positive")
	}
	if rc.PermQ1 <= 0 || rc.PermQ2 <= 0 {
		return configErr("permeability", [2]float64{rc.PermQ1, rc.PermQ2}, "must be positive")
	}
	if rc.Threads < 0 {
		return configErr("threads", rc.Threads, "must be >= 0")
	}
	return
}

// NDivisions is the number of uniform refinements applied at step i
func (rc *RunConfig) NDivisions(step int) int { return rc.Exp + step }

func (rc *RunConfig) MeshSize(ndiv int) float64 {
	return rc.BaseMeshSize / math.Pow(2, float64(ndiv))
}

// RefinementSchedule lists the decreasing mesh sizes of the sweep
func (rc *RunConfig) RefinementSchedule() (hs []float64) {
	hs = make([]float64, rc.RefinementLevels)
	for i := range hs {
		hs[i] = rc.MeshSize(rc.NDivisions(i))
	}
	return
}
