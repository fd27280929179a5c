package Laplace2D

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
)

func intPtr(i int) *int { return &i }

func TestRunConfigValidation(t *testing.T) {
	type tc struct {
		mode  Mode
		bench exact_solution.Benchmark
		k, n  int
		param string // empty when valid
	}
	cases := []tc{
		{H1, exact_solution.ESinSin, 2, 0, ""},
		{H1, exact_solution.ESinSin, 0, 0, "k"},
		{H1, exact_solution.EArcTan, 1, 0, "n"},
		{H1, exact_solution.EArcTan, 1, 1, ""},
		{Hybrid, exact_solution.ESinSin, 1, 0, "n"},
		{Hybrid, exact_solution.ESinSin, 0, 1, ""},
		{Hybrid, exact_solution.ESteklovNonConst, 1, 1, ""},
		{Mixed, exact_solution.ESinSin, 0, 0, ""},
		{Mixed, exact_solution.ESinSin, 1, -1, "n"},
		{Mixed, exact_solution.ESinSin, -1, 0, "k"},
		{Mixed, exact_solution.ESteklovNonConst, 1, 0, ""},
		{Mode(7), exact_solution.ESinSin, 1, 1, "approx"},
		{H1, exact_solution.Benchmark(9), 1, 1, "problem"},
	}
	for _, c := range cases {
		rc, err := NewRunConfig(c.mode, c.bench, c.k, c.n)
		if c.param == "" {
			require.NoErrorf(t, err, "%v", c)
			assert.NotNil(t, rc)
			continue
		}
		var ce *ConfigurationError
		require.Truef(t, errors.As(err, &ce), "%v should be a configuration error, have %v", c, err)
		assert.Equal(t, c.param, ce.Param)
		assert.Nil(t, rc)
	}
}

func TestParseRunParameters(t *testing.T) {
	rc, err := ParseRunParameters("ESinSin", "H1", intPtr(2), nil)
	require.NoError(t, err)
	assert.Equal(t, H1, rc.Mode)
	assert.Equal(t, 2, rc.K)

	rc, err = ParseRunParameters("ESteklovNonConst", "Mixed", intPtr(1), intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, Mixed, rc.Mode)
	assert.Equal(t, exact_solution.ESteklovNonConst, rc.Benchmark)

	var ce *ConfigurationError
	_, err = ParseRunParameters("ECosCos", "H1", intPtr(1), nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "problem", ce.Param)
	_, err = ParseRunParameters("ESinSin", "DG", intPtr(1), nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "approx", ce.Param)
	_, err = ParseRunParameters("ESinSin", "mixed", intPtr(1), nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "approx", ce.Param)
	_, err = ParseRunParameters("SinSin", "H1", intPtr(1), nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "problem", ce.Param)
	_, err = ParseRunParameters("ESinSin", "H1", nil, nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "k", ce.Param)
	_, err = ParseRunParameters("ESinSin", "Hybrid", intPtr(1), nil)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "n", ce.Param)
}

func TestRefinementSchedule(t *testing.T) {
	rc, err := NewRunConfig(H1, exact_solution.ESinSin, 1, 0)
	require.NoError(t, err)
	rc.Exp, rc.RefinementLevels = 1, 4
	assert.Empty(t, cmp.Diff([]float64{0.25, 0.125, 0.0625, 0.03125}, rc.RefinementSchedule()))
	assert.Equal(t, 3, rc.NDivisions(2))
	assert.False(t, rc.History.HasPrior())
	assert.Equal(t, -1., rc.History.PrevH)
	for _, e := range rc.History.PrevErrors {
		assert.Equal(t, -1., e)
	}
}

func TestSteklovDoublesMeshSize(t *testing.T) {
	sin, err := NewRunConfig(Mixed, exact_solution.ESinSin, 1, 0)
	require.NoError(t, err)
	sk, err := NewRunConfig(Mixed, exact_solution.ESteklovNonConst, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseMeshSize, sin.BaseMeshSize)
	assert.Equal(t, 2*DefaultBaseMeshSize, sk.BaseMeshSize)
	assert.Equal(t, 2*sin.MeshSize(3), sk.MeshSize(3))

	ps, err := NewProblemSpec(sk, 1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]int{1, 2, 3, 4}, ps.InteriorIDs.Sorted()))
	assert.Empty(t, cmp.Diff([]int{-8, -6, -5, -1}, ps.BoundaryIDs.Sorted()))
	assert.Equal(t, 0.5, ps.H)
	// Origin centered [-1,1]^2
	var minX, maxX float64
	for _, p := range ps.Mesh.Points {
		minX, maxX = min(minX, p.X[0]), max(maxX, p.X[0])
	}
	assert.Equal(t, -1., minX)
	assert.Equal(t, 1., maxX)

	ps, err = NewProblemSpec(sin, 1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]int{1}, ps.InteriorIDs.Sorted()))
	assert.Empty(t, cmp.Diff([]int{-1}, ps.BoundaryIDs.Sorted()))
	assert.Equal(t, 0.25, ps.H)
	assert.Equal(t, 4, ps.RefinementFactor())
	assert.Equal(t, 32, ps.Mesh.NumTris())
}

func TestProblemSpecFailsBeforeMesh(t *testing.T) {
	rc, err := NewRunConfig(Hybrid, exact_solution.ESinSin, 1, 1)
	require.NoError(t, err)
	rc.N = 0
	ps, err := NewProblemSpec(rc, 2)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Nil(t, ps)

	rc.N = 1
	rc.HybridLevel = 3
	_, err = NewProblemSpec(rc, 2)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "hybridLevel", ce.Param)

	_, err = NewProblemSpec(nil, 0)
	assert.Error(t, err)
}
