package Laplace2D

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
)

func buildSpace(t *testing.T, mode Mode, bench exact_solution.Benchmark, k, n, ndiv int) (ss SpaceStrategy, ds *DiscreteSpace) {
	t.Helper()
	rc, err := NewRunConfig(mode, bench, k, n)
	require.NoError(t, err)
	ps, err := NewProblemSpec(rc, ndiv)
	require.NoError(t, err)
	ss, err = NewSpaceStrategy(mode, rc.HybridLevel)
	require.NoError(t, err)
	ds, err = ss.Build(ps)
	require.NoError(t, err)
	return
}

func TestAssembleMaterials(t *testing.T) {
	for _, bench := range []exact_solution.Benchmark{exact_solution.ESinSin, exact_solution.ESteklovNonConst} {
		for _, mode := range []Mode{H1, Hybrid, Mixed} {
			ss, ds := buildSpace(t, mode, bench, 1, 1, 0)
			want := ds.Problem.InteriorIDs.Union(ds.Problem.BoundaryIDs)
			if mode == Hybrid {
				want.Insert(InterfaceMatID)
				assert.True(t, ds.HasInterface)
			}
			got := ss.AssembleMaterials(ds)
			assert.Emptyf(t, cmp.Diff(want.Sorted(), got.Sorted()), "%s %s", mode, bench)
		}
	}
}

func TestSignConvention(t *testing.T) {
	h1, _ := NewSpaceStrategy(H1, 1)
	hy, _ := NewSpaceStrategy(Hybrid, 1)
	mx, _ := NewSpaceStrategy(Mixed, 1)
	assert.Equal(t, exact_solution.SignNegative, h1.SignConvention())
	assert.Equal(t, -h1.SignConvention(), hy.SignConvention())
	assert.Equal(t, -h1.SignConvention(), mx.SignConvention())
	_, err := NewSpaceStrategy(Hybrid, 0)
	var ce *ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestPostProcessFields(t *testing.T) {
	type names struct{ sc, vc []string }
	want := map[Mode]names{
		H1:     {[]string{"Solution", "ExactSolution"}, []string{"Derivative"}},
		Hybrid: {[]string{"Pressure", "PressureExact"}, []string{"Flux"}},
		Mixed:  {[]string{"Pressure", "ExactPressure"}, []string{"Flux", "ExactFlux"}},
	}
	for mode, w := range want {
		ss, err := NewSpaceStrategy(mode, 1)
		require.NoError(t, err)
		sc, vc := ss.PostProcessFields()
		assert.Equal(t, w.sc, sc)
		assert.Equal(t, w.vc, vc)
	}
}

func TestDofCounts(t *testing.T) {
	// Unit square with one refinement: 25 vertices, 56 edges, 32 triangles
	_, ds := buildSpace(t, H1, exact_solution.ESinSin, 2, 0, 1)
	assert.Equal(t, 25+56, ds.NEquations)
	_, ds = buildSpace(t, H1, exact_solution.ESinSin, 3, 0, 1)
	assert.Equal(t, 25+2*56, ds.NEquations)
	assert.Equal(t, 1, ds.Groups[0].NInternal)
	_, ds = buildSpace(t, Hybrid, exact_solution.ESinSin, 1, 1, 1)
	assert.Equal(t, 2*56+32, ds.NEquations)
	_, ds = buildSpace(t, Mixed, exact_solution.ESinSin, 1, 1, 1)
	assert.Equal(t, 2*56+32, ds.NEquations)
	_, ds = buildSpace(t, Mixed, exact_solution.ESinSin, 0, 0, 1)
	assert.Equal(t, 56+32, ds.NEquations)
	for _, g := range ds.Groups {
		assert.Equal(t, 4, g.NRetained())
		assert.Equal(t, 0, g.NInternal)
	}
}

func TestHybridSystemIsNonsingular(t *testing.T) {
	assert.Equal(t, 1, hybridPotentialDegree(0, 1))
	assert.Equal(t, 3, hybridPotentialDegree(1, 1))
	assert.Equal(t, 3, hybridPotentialDegree(2, 1))
	assert.Equal(t, 3, hybridPotentialDegree(1, 2))
	for _, c := range [][2]int{{0, 1}, {1, 1}, {2, 1}, {3, 1}, {1, 2}} {
		ss, ds := buildSpace(t, Hybrid, exact_solution.ESinSin, c[0], c[1], 0)
		ls, err := (&SolveStage{}).Assemble(ds, ss.AssembleMaterials(ds))
		require.NoError(t, err)
		var (
			n = ds.NEquations
			A = mat.NewSymDense(n, nil)
		)
		ls.A.DoNonZero(func(i, j int, v float64) {
			if i <= j {
				A.SetSym(i, j, v)
			}
		})
		var eig mat.EigenSym
		require.True(t, eig.Factorize(A, false))
		lo, hi := math.Inf(1), 0.
		for _, v := range eig.Values(nil) {
			lo, hi = math.Min(lo, math.Abs(v)), math.Max(hi, math.Abs(v))
		}
		assert.Greaterf(t, lo, 1.e-9*hi, "k=%d n=%d", c[0], c[1])
		_, err = ls.FactorizeAndSolve()
		assert.NoErrorf(t, err, "k=%d n=%d", c[0], c[1])
	}
}

func TestHybridLevelTwoNotSupported(t *testing.T) {
	rc, err := NewRunConfig(Hybrid, exact_solution.ESinSin, 1, 1)
	require.NoError(t, err)
	rc.HybridLevel = 2
	ps, err := NewProblemSpec(rc, 0)
	require.NoError(t, err)
	_, err = HybridStrategy{Level: 2}.Build(ps)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "hybridLevel", ce.Param)
}

func TestCondense(t *testing.T) {
	var (
		n, nR = 6, 4
		B     = mat.NewDense(n, n, nil)
		K     = mat.NewDense(n, n, nil)
		F     = mat.NewVecDense(n, nil)
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			B.Set(i, j, math.Sin(float64(3*i+j+1)))
		}
		F.SetVec(i, float64(i)-2.5)
	}
	K.Mul(B, B.T())
	for i := 0; i < n; i++ {
		K.Set(i, i, K.At(i, i)+1)
	}
	var full mat.VecDense
	require.NoError(t, full.SolveVec(K, F))

	cg, err := condense(K, F, nR)
	require.NoError(t, err)
	var ur mat.VecDense
	require.NoError(t, ur.SolveVec(cg.Kc, cg.Fc))
	expanded := cg.expand(ur.RawVector().Data)
	require.Len(t, expanded, n)
	for i := 0; i < n; i++ {
		assert.InDelta(t, full.AtVec(i), expanded[i], 1.e-10)
	}

	// Nothing to condense
	cg, err = condense(K, F, n)
	require.NoError(t, err)
	assert.Equal(t, K, cg.Kc)
	assert.Equal(t, []float64{1, 2}, cg.expand([]float64{1, 2}))

	// Singular internal block
	Z := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 0, 0, 0, 0, 0})
	_, err = condense(Z, mat.NewVecDense(3, nil), 1)
	assert.Error(t, err)
}

func TestSolveIsThreadIndependent(t *testing.T) {
	for _, mode := range []Mode{H1, Hybrid, Mixed} {
		ss, ds := buildSpace(t, mode, exact_solution.ESinSin, 1, 1, 1)
		filter := ss.AssembleMaterials(ds)
		serial, err := (&SolveStage{Threads: 1}).Solve(ds, filter)
		require.NoError(t, err)
		parallel, err := (&SolveStage{Threads: 4}).Solve(ds, filter)
		require.NoError(t, err)
		require.Len(t, parallel.Solution, len(serial.Solution))
		for i := range serial.Solution {
			assert.InDeltaf(t, serial.Solution[i], parallel.Solution[i], 1.e-12, "%s eq %d", mode, i)
		}
		assert.Equal(t, ds.NEquations, serial.NEquations)
	}
}

func TestIncompleteFilterIsSingular(t *testing.T) {
	// Interior vertices get no stiffness without the volume material
	_, ds := buildSpace(t, H1, exact_solution.ESinSin, 1, 0, 1)
	_, err := (&SolveStage{}).Solve(ds, NewMaterialFilter(ds.Problem.BoundaryIDs))
	var se *SolverError
	require.True(t, errors.As(err, &se), "have %v", err)

	// Interior multipliers are left free without the interface id
	_, ds = buildSpace(t, Hybrid, exact_solution.ESinSin, 1, 1, 1)
	_, err = (&SolveStage{}).Solve(ds, NewMaterialFilter(ds.Problem.InteriorIDs, ds.Problem.BoundaryIDs))
	require.True(t, errors.As(err, &se), "have %v", err)
	assert.Equal(t, "factorization", se.Stage)
	assert.GreaterOrEqual(t, se.Equation, 0)
}

func TestErrorNormsAreSmall(t *testing.T) {
	for _, mode := range []Mode{H1, Hybrid, Mixed} {
		ss, ds := buildSpace(t, mode, exact_solution.ESinSin, 2, 1, 2)
		sf, err := (&SolveStage{}).Solve(ds, ss.AssembleMaterials(ds))
		require.NoError(t, err)
		errs := ErrorNorms(sf)
		require.Len(t, errs, NumErrorNorms)
		for j, e := range errs {
			assert.Greaterf(t, e, 0., "%s norm %d", mode, j)
			assert.Lessf(t, e, 0.05, "%s norm %d", mode, j)
		}
	}
}

func TestExport(t *testing.T) {
	for _, mode := range []Mode{H1, Mixed} {
		ss, ds := buildSpace(t, mode, exact_solution.ESinSin, 1, 1, 0)
		sf, err := (&SolveStage{}).Solve(ds, ss.AssembleMaterials(ds))
		require.NoError(t, err)
		ve := &VTKExporter{Dir: filepath.Join(t.TempDir(), "plots")}
		files, err := ve.Export(sf)
		require.NoError(t, err)
		require.Len(t, files, 2)

		field, err := os.ReadFile(files[0])
		require.NoError(t, err)
		scNames, vcNames := ss.PostProcessFields()
		for _, name := range scNames {
			assert.Contains(t, string(field), "SCALARS "+name+" double 1")
		}
		for _, name := range vcNames {
			assert.Contains(t, string(field), "VECTORS "+name+" double")
		}
		assert.True(t, strings.HasPrefix(string(field), "# vtk DataFile Version 3.0"))

		geom, err := os.ReadFile(files[1])
		require.NoError(t, err)
		assert.Contains(t, string(geom), "CELL_DATA 8")
		assert.Contains(t, string(geom), "SCALARS MaterialID int 1")
		assert.Equal(t, "ESinSin_geometry_ref-2.vtk", filepath.Base(files[1]))
	}
	rc, err := NewRunConfig(Hybrid, exact_solution.ESinSin, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hybrid_ESinSin_k-1_n-2", PlotDirName(rc))
	rc, err = NewRunConfig(H1, exact_solution.ESinSin, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "H1_ESinSin_k-3", PlotDirName(rc))
}

func TestVTKFloat(t *testing.T) {
	assert.Equal(t, 0., vtkFloat(math.NaN()))
	assert.Equal(t, 0., vtkFloat(math.Inf(-1)))
	assert.Equal(t, 1.5, vtkFloat(1.5))
}
